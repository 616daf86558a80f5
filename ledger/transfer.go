// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/blinklabs-io/referendum/database/models"
	"github.com/blinklabs-io/referendum/database/types"
	"github.com/blinklabs-io/referendum/event"
	"github.com/holiman/uint256"
)

// issueTransfer records a pending outbound transfer and queues its ticket
// for dispatch once the mutation commits
func (m *mutation) issueTransfer(
	kind TransferKind,
	accountID string,
	amount *uint256.Int,
	memo string,
) (Ticket, error) {
	m.state.lastTransferToken++
	t := Ticket{
		Token:   m.state.lastTransferToken,
		Kind:    kind,
		Account: accountID,
		Amount:  *amount,
		Memo:    memo,
	}
	rec := &models.TransferRecord{
		Token:    t.Token,
		Kind:     uint8(kind),
		Account:  accountID,
		Amount:   types.NewAmount(amount),
		Status:   uint8(TransferPending),
		IssuedAt: m.now.UnixNano(),
		Memo:     memo,
	}
	if err := m.ls.db.SetTransfer(rec, m.txn); err != nil {
		return Ticket{}, err
	}
	m.tickets = append(m.tickets, t)
	m.emit(event.TransferEventType, event.TransferEvent{
		Token:   t.Token,
		Kind:    kind.String(),
		Account: accountID,
		Amount:  t.Amount,
		Status:  TransferPending.String(),
	})
	m.onCommit(func() {
		m.ls.metrics.pendingTransfers.Inc()
	})
	return t, nil
}

// ResolveTransfer completes the transfer identified by token. A nil outcome
// marks it succeeded. A failed withdrawal puts the principal back on the
// account if it is still registered. Failed bond and refund transfers are
// only recorded.
func (ls *LedgerState) ResolveTransfer(
	ctx context.Context,
	token uint64,
	outcome error,
) error {
	return ls.mutate(ctx, "resolve_transfer", func(m *mutation) error {
		rec, err := m.ls.db.GetTransfer(token, m.txn)
		if err != nil {
			if errors.Is(err, models.ErrTransferNotFound) {
				return fmt.Errorf("%w: %d", ErrUnknownTransfer, token)
			}
			return err
		}
		if TransferStatus(rec.Status) != TransferPending {
			return fmt.Errorf("%w: %d", ErrUnknownTransfer, token)
		}
		kind := TransferKind(rec.Kind)
		amount := rec.Amount.Int()
		status := TransferSucceeded
		if outcome != nil {
			status = TransferFailed
			rec.Error = outcome.Error()
			if kind == TransferWithdraw {
				if err := m.restorePrincipal(rec.Account, amount, outcome); err != nil {
					return err
				}
			} else {
				m.onCommit(func() {
					m.ls.logger.Warn(
						"outbound transfer failed",
						"token", token,
						"kind", kind.String(),
						"account", rec.Account,
						"amount", amount.Dec(),
						"error", outcome,
					)
				})
			}
		}
		rec.Status = uint8(status)
		if err := m.ls.db.SetTransfer(rec, m.txn); err != nil {
			return err
		}
		m.emit(event.TransferEventType, event.TransferEvent{
			Token:   token,
			Kind:    kind.String(),
			Account: rec.Account,
			Amount:  *amount,
			Status:  status.String(),
			Error:   rec.Error,
		})
		m.onCommit(func() {
			m.ls.metrics.pendingTransfers.Dec()
			m.ls.metrics.transfers.WithLabelValues(kind.String(), status.String()).Inc()
		})
		return nil
	})
}

func (m *mutation) restorePrincipal(
	accountID string,
	amount *uint256.Int,
	cause error,
) error {
	acct, err := m.getAccount(accountID)
	if err != nil {
		if !errors.Is(err, ErrNotRegistered) {
			return err
		}
		// The account left in the meantime, so the funds stay in custody
		m.onCommit(func() {
			m.ls.logger.Error(
				"withdrawal failed for unregistered account, funds remain in custody",
				"account", accountID,
				"amount", amount.Dec(),
				"error", cause,
			)
		})
		return nil
	}
	acct.LockingAmount.Add(&acct.LockingAmount, amount)
	m.state.curLockAmount.Add(&m.state.curLockAmount, amount)
	if err := m.putAccount(acct); err != nil {
		return err
	}
	m.onCommit(func() {
		m.ls.metrics.compensations.Inc()
		m.ls.logger.Warn(
			"withdrawal failed, principal restored",
			"account", accountID,
			"amount", amount.Dec(),
			"error", cause,
		)
	})
	return nil
}
