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
	"strconv"

	"github.com/blinklabs-io/referendum/asset"
	"github.com/blinklabs-io/referendum/event"
	"github.com/holiman/uint256"
)

var _ asset.Receiver = (*LedgerState)(nil)

// Lock adds amount to the account's locked principal and returns the ballot
// power granted. With windows set to zero the amount is appended to the
// active lock, otherwise a new lock lasting that many windows is started.
func (ls *LedgerState) Lock(
	ctx context.Context,
	accountID string,
	amount *uint256.Int,
	windows uint32,
) (*uint256.Int, error) {
	var granted *uint256.Int
	err := ls.mutate(ctx, "lock", func(m *mutation) error {
		if err := m.refresh(); err != nil {
			return err
		}
		var err error
		granted, err = m.lock(accountID, amount, windows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return granted, nil
}

// AppendLock adds amount to the account's active lock
func (ls *LedgerState) AppendLock(
	ctx context.Context,
	accountID string,
	amount *uint256.Int,
) (*uint256.Int, error) {
	return ls.Lock(ctx, accountID, amount, 0)
}

// OnAssetTransfer accepts funds moved into custody. An empty msg appends to
// the sender's active lock and a decimal msg starts a new lock of that many
// windows. On failure the whole amount is reported unused.
func (ls *LedgerState) OnAssetTransfer(
	ctx context.Context,
	assetID string,
	sender string,
	amount *uint256.Int,
	msg string,
) (*uint256.Int, error) {
	if amount == nil {
		return nil, ErrInvalidAmount
	}
	var windows uint32
	if msg != "" {
		tmp, err := strconv.ParseUint(msg, 10, 32)
		if err != nil || tmp == 0 {
			return amount.Clone(), fmt.Errorf("%w: %q", ErrIllegalMessage, msg)
		}
		windows = uint32(tmp)
	}
	err := ls.mutate(ctx, "on_asset_transfer", func(m *mutation) error {
		if assetID != m.state.lockedAsset {
			return fmt.Errorf("%w: %s", ErrIllegalAsset, assetID)
		}
		if err := m.refresh(); err != nil {
			return err
		}
		_, err := m.lock(sender, amount, windows)
		return err
	})
	if err != nil {
		return amount.Clone(), err
	}
	return new(uint256.Int), nil
}

func (m *mutation) lock(
	accountID string,
	amount *uint256.Int,
	windows uint32,
) (*uint256.Int, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if int(windows) > m.state.ring.Capacity() {
		return nil, fmt.Errorf(
			"%w: %d exceeds %d",
			ErrInvalidLockWindows,
			windows,
			m.state.ring.Capacity(),
		)
	}
	acct, err := m.getAccount(accountID)
	if err != nil {
		return nil, err
	}
	live := acct.LiveBallot(m.window)
	appendMode := windows == 0
	var delta *uint256.Int
	if appendMode {
		if live.IsZero() {
			return nil, fmt.Errorf("%w: %s", ErrNoActiveLock, accountID)
		}
		n := acct.UnlockingSessionID - m.window + 1
		delta = m.ballots(amount, amount, n)
	} else {
		if !live.IsZero() {
			return nil, fmt.Errorf("%w: %s", ErrActiveLockExists, accountID)
		}
		// Principal left over from an expired lock earns full windows only
		principal := new(uint256.Int).Add(amount, &acct.LockingAmount)
		delta = m.ballots(principal, amount, windows)
		acct.BallotAmount.Clear()
		acct.UnlockingSessionID = m.window + windows - 1
	}
	if err := m.state.ring.AddExpire(acct.UnlockingSessionID, delta); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	acct.LockingAmount.Add(&acct.LockingAmount, amount)
	acct.BallotAmount.Add(&acct.BallotAmount, delta)
	m.state.curLockAmount.Add(&m.state.curLockAmount, amount)
	if err := m.putAccount(acct); err != nil {
		return nil, err
	}
	if appendMode && !delta.IsZero() {
		if err := m.topUpVotes(acct.ID, delta); err != nil {
			return nil, err
		}
	}
	m.emit(event.LockEventType, event.LockEvent{
		Account:            acct.ID,
		Amount:             *amount,
		Windows:            windows,
		Ballot:             *delta,
		UnlockingSessionID: acct.UnlockingSessionID,
		Append:             appendMode,
	})
	mode := "new"
	if appendMode {
		mode = "append"
	}
	m.onCommit(func() {
		m.ls.metrics.locks.WithLabelValues(mode).Inc()
		m.ls.logger.Debug(
			"locked",
			"account", acct.ID,
			"amount", amount.Dec(),
			"ballot", delta.Dec(),
			"unlocking", acct.UnlockingSessionID,
			"mode", mode,
		)
	})
	return delta, nil
}

// ballots computes full*(windows-1) plus the partial credit for the rest of
// the current window, counted in whole days
func (m *mutation) ballots(full, partial *uint256.Int, windows uint32) *uint256.Int {
	clock := m.state.clock
	ret := new(uint256.Int).Mul(full, uint256.NewInt(uint64(windows-1)))
	credit := new(uint256.Int).Mul(
		partial,
		uint256.NewInt(clock.RemainingDays(m.now, m.window)),
	)
	credit.Div(credit, uint256.NewInt(clock.DaysPerWindow()))
	return ret.Add(ret, credit)
}

// Withdraw releases the principal of an expired lock. The returned ticket
// tracks the outbound transfer.
func (ls *LedgerState) Withdraw(ctx context.Context, accountID string) (*Ticket, error) {
	var ticket *Ticket
	err := ls.mutate(ctx, "withdraw", func(m *mutation) error {
		if err := m.refresh(); err != nil {
			return err
		}
		acct, err := m.getAccount(accountID)
		if err != nil {
			return err
		}
		if !acct.LiveBallot(m.window).IsZero() || acct.LockingAmount.IsZero() {
			return fmt.Errorf("%w: %s", ErrNothingToWithdraw, accountID)
		}
		principal := acct.LockingAmount.Clone()
		acct.LockingAmount.Clear()
		acct.BallotAmount.Clear()
		m.state.curLockAmount.Sub(&m.state.curLockAmount, principal)
		if err := m.putAccount(acct); err != nil {
			return err
		}
		t, err := m.issueTransfer(TransferWithdraw, accountID, principal, "withdraw")
		if err != nil {
			return err
		}
		ticket = &t
		m.emit(event.WithdrawEventType, event.WithdrawEvent{
			Account: accountID,
			Amount:  *principal,
			Token:   t.Token,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// Unlock is Withdraw without the error for an account that has nothing to
// withdraw. The boolean reports whether a transfer was issued.
func (ls *LedgerState) Unlock(ctx context.Context, accountID string) (*Ticket, bool, error) {
	ticket, err := ls.Withdraw(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNothingToWithdraw) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return ticket, true, nil
}
