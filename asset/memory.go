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

package asset

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/holiman/uint256"
)

// MemoryLedger is an in-process asset with a single custody account
type MemoryLedger struct {
	mu        sync.Mutex
	id        string
	custody   string
	balances  map[string]*uint256.Int
	completed map[uint64]struct{}
	failFunc  func(TransferRequest) error
}

var _ Asset = (*MemoryLedger)(nil)

// NewMemoryLedger returns a ledger whose custody account is registered
func NewMemoryLedger(id string, custody string) *MemoryLedger {
	return &MemoryLedger{
		id:        id,
		custody:   custody,
		balances:  map[string]*uint256.Int{custody: new(uint256.Int)},
		completed: make(map[uint64]struct{}),
	}
}

func (m *MemoryLedger) ID() string {
	return m.id
}

func (m *MemoryLedger) Custody() string {
	return m.custody
}

// Register creates a zero balance for account. It returns false when the
// account already exists.
func (m *MemoryLedger) Register(account string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.balances[account]; ok {
		return false
	}
	m.balances[account] = new(uint256.Int)
	return true
}

func (m *MemoryLedger) Mint(account string, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bal, ok := m.balances[account]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, account)
	}
	sum, overflow := new(uint256.Int).AddOverflow(bal, amount)
	if overflow {
		return fmt.Errorf("%w: balance overflow", ErrInvalidAmount)
	}
	bal.Set(sum)
	return nil
}

// FailWith installs a hook consulted before every outbound transfer. A
// non-nil result fails the transfer without moving funds. Pass nil to clear.
func (m *MemoryLedger) FailWith(fn func(TransferRequest) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failFunc = fn
}

func (m *MemoryLedger) Transfer(_ context.Context, req TransferRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.completed[req.Token]; ok {
		return nil
	}
	if m.failFunc != nil {
		if err := m.failFunc(req); err != nil {
			return err
		}
	}
	if err := m.move(m.custody, req.To, &req.Amount); err != nil {
		return err
	}
	m.completed[req.Token] = struct{}{}
	return nil
}

func (m *MemoryLedger) BalanceOf(
	_ context.Context,
	account string,
) (*uint256.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bal, ok := m.balances[account]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, account)
	}
	return bal.Clone(), nil
}

// Balances returns a copy of every balance
func (m *MemoryLedger) Balances() map[string]*uint256.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	ret := maps.Clone(m.balances)
	for k, v := range ret {
		ret[k] = v.Clone()
	}
	return ret
}

// TransferCall moves amount from sender into custody and hands it to the
// receiver. Whatever the receiver reports as unused, or the whole amount when
// it fails, goes back to the sender. It returns the amount kept.
func (m *MemoryLedger) TransferCall(
	ctx context.Context,
	sender string,
	receiver Receiver,
	amount *uint256.Int,
	msg string,
) (*uint256.Int, error) {
	if amount.IsZero() {
		return nil, ErrInvalidAmount
	}
	m.mu.Lock()
	err := m.move(sender, m.custody, amount)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	unused, recvErr := receiver.OnAssetTransfer(ctx, m.id, sender, amount.Clone(), msg)
	refund := amount.Clone()
	if recvErr == nil && unused != nil && unused.Lt(amount) {
		refund = unused.Clone()
	} else if recvErr == nil && unused == nil {
		refund.Clear()
	}
	if !refund.IsZero() {
		m.mu.Lock()
		err = m.move(m.custody, sender, refund)
		m.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("refund %s to %s: %w", refund.Dec(), sender, err)
		}
	}
	kept := new(uint256.Int).Sub(amount, refund)
	return kept, recvErr
}

func (m *MemoryLedger) move(from, to string, amount *uint256.Int) error {
	src, ok := m.balances[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, from)
	}
	dst, ok := m.balances[to]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, to)
	}
	if src.Lt(amount) {
		return fmt.Errorf(
			"%w: %s has %s, need %s",
			ErrInsufficientBalance,
			from,
			src.Dec(),
			amount.Dec(),
		)
	}
	src.Sub(src, amount)
	dst.Add(dst, amount)
	return nil
}
