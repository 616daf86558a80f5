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
)

// Register creates an empty account. It returns false when the account is
// already registered.
func (ls *LedgerState) Register(ctx context.Context, accountID string) (bool, error) {
	if accountID == "" {
		return false, ErrInvalidAccount
	}
	var created bool
	err := ls.mutate(ctx, "register", func(m *mutation) error {
		if err := m.refresh(); err != nil {
			return err
		}
		_, err := m.getAccount(accountID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrNotRegistered) {
			return err
		}
		if err := m.putAccount(&Account{ID: accountID}); err != nil {
			return err
		}
		m.state.accountCount++
		created = true
		m.onCommit(func() {
			m.ls.logger.Debug("registered account", "account", accountID)
		})
		return nil
	})
	return created, err
}

// Unregister removes an account that holds no locked funds, along with its
// vote history. It returns false when the account is not registered.
func (ls *LedgerState) Unregister(ctx context.Context, accountID string) (bool, error) {
	var removed bool
	err := ls.mutate(ctx, "unregister", func(m *mutation) error {
		if err := m.refresh(); err != nil {
			return err
		}
		acct, err := m.getAccount(accountID)
		if err != nil {
			if errors.Is(err, ErrNotRegistered) {
				return nil
			}
			return err
		}
		if !acct.LockingAmount.IsZero() {
			return fmt.Errorf(
				"%w: %s holds %s",
				ErrAccountLocked,
				accountID,
				acct.LockingAmount.Dec(),
			)
		}
		if err := m.ls.db.DeleteAccount(accountID, m.txn); err != nil {
			return err
		}
		m.state.accountCount--
		removed = true
		m.onCommit(func() {
			m.ls.logger.Debug("unregistered account", "account", accountID)
		})
		return nil
	})
	return removed, err
}
