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
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testReceiver struct {
	unused *uint256.Int
	err    error
	calls  int
}

func (r *testReceiver) OnAssetTransfer(
	_ context.Context,
	_ string,
	_ string,
	_ *uint256.Int,
	_ string,
) (*uint256.Int, error) {
	r.calls++
	return r.unused, r.err
}

func newTestLedger(t *testing.T) *MemoryLedger {
	t.Helper()
	m := NewMemoryLedger("gov", "custody")
	require.True(t, m.Register("alice"))
	require.False(t, m.Register("alice"))
	require.NoError(t, m.Mint("alice", uint256.NewInt(100)))
	return m
}

func balance(t *testing.T, m *MemoryLedger, account string) uint64 {
	t.Helper()
	bal, err := m.BalanceOf(context.Background(), account)
	require.NoError(t, err)
	return bal.Uint64()
}

func TestTransferCall(t *testing.T) {
	testCases := []struct {
		name         string
		receiver     *testReceiver
		expectedKept uint64
		expectedErr  bool
	}{
		{
			name:         "all used",
			receiver:     &testReceiver{unused: new(uint256.Int)},
			expectedKept: 40,
		},
		{
			name:         "partial refund",
			receiver:     &testReceiver{unused: uint256.NewInt(15)},
			expectedKept: 25,
		},
		{
			name:         "receiver error refunds everything",
			receiver:     &testReceiver{err: errors.New("rejected")},
			expectedKept: 0,
			expectedErr:  true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestLedger(t)
			kept, err := m.TransferCall(
				context.Background(),
				"alice",
				tc.receiver,
				uint256.NewInt(40),
				"",
			)
			if tc.expectedErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			require.NotNil(t, kept)
			assert.Equal(t, tc.expectedKept, kept.Uint64())
			assert.Equal(t, 1, tc.receiver.calls)
			assert.Equal(t, tc.expectedKept, balance(t, m, "custody"))
			assert.Equal(t, 100-tc.expectedKept, balance(t, m, "alice"))
		})
	}
}

func TestTransferCallInsufficientBalance(t *testing.T) {
	m := newTestLedger(t)
	recv := &testReceiver{}
	_, err := m.TransferCall(context.Background(), "alice", recv, uint256.NewInt(101), "")
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, 0, recv.calls)
}

func TestTransferIdempotentByToken(t *testing.T) {
	m := newTestLedger(t)
	_, err := m.TransferCall(context.Background(), "alice", &testReceiver{}, uint256.NewInt(50), "")
	require.NoError(t, err)
	req := TransferRequest{Token: 1, To: "alice", Amount: *uint256.NewInt(20)}
	require.NoError(t, m.Transfer(context.Background(), req))
	require.NoError(t, m.Transfer(context.Background(), req))
	assert.Equal(t, uint64(70), balance(t, m, "alice"))
	assert.Equal(t, uint64(30), balance(t, m, "custody"))
}

func TestTransferFailures(t *testing.T) {
	m := newTestLedger(t)
	ctx := context.Background()
	err := m.Transfer(ctx, TransferRequest{Token: 1, To: "bob", Amount: *uint256.NewInt(1)})
	require.ErrorIs(t, err, ErrNotRegistered)
	err = m.Transfer(ctx, TransferRequest{Token: 2, To: "alice", Amount: *uint256.NewInt(1)})
	require.ErrorIs(t, err, ErrInsufficientBalance)

	errHook := errors.New("asset offline")
	m.FailWith(func(TransferRequest) error { return errHook })
	_, err = m.TransferCall(ctx, "alice", &testReceiver{}, uint256.NewInt(10), "")
	require.NoError(t, err)
	err = m.Transfer(ctx, TransferRequest{Token: 3, To: "alice", Amount: *uint256.NewInt(10)})
	require.ErrorIs(t, err, errHook)
	m.FailWith(nil)
	require.NoError(t, m.Transfer(ctx, TransferRequest{Token: 3, To: "alice", Amount: *uint256.NewInt(10)}))
	balances := m.Balances()
	assert.Equal(t, uint64(100), balances["alice"].Uint64())
	assert.True(t, balances["custody"].IsZero())
}

func TestMintOverflowKeepsBalance(t *testing.T) {
	m := newTestLedger(t)
	require.True(t, m.Register("bob"))
	maxAmount := new(uint256.Int).SetAllOne()
	require.NoError(t, m.Mint("bob", maxAmount))
	err := m.Mint("bob", uint256.NewInt(1))
	require.ErrorIs(t, err, ErrInvalidAmount)
	bal, err := m.BalanceOf(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, maxAmount, bal)
	require.ErrorIs(t, m.Mint("carol", uint256.NewInt(1)), ErrNotRegistered)
}
