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
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockBallots(t *testing.T) {
	testCases := []struct {
		name          string
		offset        time.Duration
		amount        uint64
		windows       uint32
		wantBallot    uint64
		wantUnlocking uint32
	}{
		{
			name:          "single window at start",
			offset:        time.Second,
			amount:        10,
			windows:       1,
			wantBallot:    10,
			wantUnlocking: 0,
		},
		{
			name:          "ten windows at start",
			offset:        time.Second,
			amount:        10,
			windows:       10,
			wantBallot:    100,
			wantUnlocking: 9,
		},
		{
			name:          "single window half way",
			offset:        15*testDay + time.Hour,
			amount:        10,
			windows:       1,
			wantBallot:    5,
			wantUnlocking: 0,
		},
		{
			name:          "last day of window",
			offset:        29*testDay + time.Hour,
			amount:        30,
			windows:       2,
			wantBallot:    31,
			wantUnlocking: 1,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.clock.at(0, tc.offset)
			env.register(t, "alice")
			assert.Equal(t, tc.wantBallot, env.lock(t, "alice", tc.amount, tc.windows))
			acct, err := env.ls.AccountState(context.Background(), "alice")
			require.NoError(t, err)
			assert.Equal(t, tc.amount, acct.LockingAmount.Uint64())
			assert.Equal(t, tc.wantBallot, acct.BallotAmount.Uint64())
			assert.Equal(t, tc.wantUnlocking, acct.UnlockingSessionID)
			env.checkRing(t, "alice")
		})
	}
}

func TestAppendLock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice")
	assert.Equal(t, uint64(100), env.lock(t, "alice", 10, 10))
	granted, err := env.ls.AppendLock(ctx, "alice", uint256.NewInt(10))
	require.NoError(t, err)
	assert.Equal(t, uint64(100), granted.Uint64())
	assert.Equal(t, uint64(200), env.ballot(t, "alice"))

	// Half way through window 5 only the remaining windows count
	env.clock.at(5, 15*testDay+time.Hour)
	granted, err = env.ls.AppendLock(ctx, "alice", uint256.NewInt(10))
	require.NoError(t, err)
	// n = 9 - 5 + 1, so 10*4 + 10*15/30
	assert.Equal(t, uint64(45), granted.Uint64())
	assert.Equal(t, uint64(245), env.ballot(t, "alice"))
	acct, err := env.ls.AccountState(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(30), acct.LockingAmount.Uint64())
	assert.Equal(t, uint32(9), acct.UnlockingSessionID)
	env.checkRing(t, "alice")
}

func TestLockErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice", "bob")
	env.lock(t, "bob", 10, 2)

	huge := new(uint256.Int).Lsh(uint256.NewInt(1), 200)
	testCases := []struct {
		name    string
		account string
		amount  *uint256.Int
		windows uint32
		wantErr error
	}{
		{"unregistered", "carol", uint256.NewInt(10), 1, ErrNotRegistered},
		{"zero amount", "alice", new(uint256.Int), 1, ErrInvalidAmount},
		{"nil amount", "alice", nil, 1, ErrInvalidAmount},
		{"oversized amount", "alice", huge, 1, ErrInvalidAmount},
		{"too many windows", "alice", uint256.NewInt(10), 25, ErrInvalidLockWindows},
		{"append without lock", "alice", uint256.NewInt(10), 0, ErrNoActiveLock},
		{"new lock while active", "bob", uint256.NewInt(10), 1, ErrActiveLockExists},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.ls.Lock(ctx, tc.account, tc.amount, tc.windows)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
	// Failed locks leave no trace
	meta, err := env.ls.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), meta.LockedAmount.Uint64())
	env.checkRing(t, "alice", "bob")
}

func TestLockExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice")
	assert.Equal(t, uint64(20), env.lock(t, "alice", 10, 2))

	env.clock.at(1, testDay)
	assert.Equal(t, uint64(20), env.ballot(t, "alice"))
	assert.Equal(t, uint64(20), env.totalBallots(t))
	_, err := env.ls.Withdraw(ctx, "alice")
	require.ErrorIs(t, err, ErrNothingToWithdraw)

	env.clock.at(2, time.Second)
	assert.Equal(t, uint64(0), env.ballot(t, "alice"))
	assert.Equal(t, uint64(0), env.totalBallots(t))
	_, err = env.ls.AppendLock(ctx, "alice", uint256.NewInt(5))
	require.ErrorIs(t, err, ErrNoActiveLock)
	env.checkRing(t, "alice")
}

func TestRelockWithExpiredPrincipal(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")
	env.lock(t, "alice", 10, 1)

	// The leftover 10 counts for the full windows only
	env.clock.at(1, time.Second)
	assert.Equal(t, uint64(20), env.lock(t, "alice", 5, 2))
	acct, err := env.ls.AccountState(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(15), acct.LockingAmount.Uint64())
	assert.Equal(t, uint32(2), acct.UnlockingSessionID)
	env.checkRing(t, "alice")
}

func TestWithdraw(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice")
	env.lock(t, "alice", 10, 1)
	env.clock.at(1, time.Second)

	ticket, err := env.ls.Withdraw(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, TransferWithdraw, ticket.Kind)
	assert.Equal(t, "alice", ticket.Account)
	assert.Equal(t, uint64(10), ticket.Amount.Uint64())
	assert.Equal(t, uint64(1), ticket.Token)

	acct, err := env.ls.AccountState(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, acct.LockingAmount.IsZero())
	meta, err := env.ls.Metadata(ctx)
	require.NoError(t, err)
	assert.True(t, meta.LockedAmount.IsZero())

	_, ok, err := env.ls.Unlock(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)
	pending, err := env.ls.PendingTransfers(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, *ticket, pending[0])
}

func TestOnAssetTransfer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice")
	require.NoError(t, env.asset.Mint("alice", uint256.NewInt(100)))

	kept, err := env.asset.TransferCall(ctx, "alice", env.ls, uint256.NewInt(40), "5")
	require.NoError(t, err)
	assert.Equal(t, uint64(40), kept.Uint64())
	assert.Equal(t, uint64(200), env.ballot(t, "alice"))

	kept, err = env.asset.TransferCall(ctx, "alice", env.ls, uint256.NewInt(10), "")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), kept.Uint64())
	assert.Equal(t, uint64(250), env.ballot(t, "alice"))

	for _, msg := range []string{"abc", "0", "-1"} {
		kept, err = env.asset.TransferCall(ctx, "alice", env.ls, uint256.NewInt(10), msg)
		require.ErrorIs(t, err, ErrIllegalMessage)
		assert.True(t, kept.IsZero())
	}
	kept, err = env.asset.TransferCall(ctx, "alice", env.ls, uint256.NewInt(10), "3")
	require.ErrorIs(t, err, ErrActiveLockExists)
	assert.True(t, kept.IsZero())

	bal, err := env.asset.BalanceOf(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(50), bal.Uint64())
	bal, err = env.asset.BalanceOf(ctx, "referendum")
	require.NoError(t, err)
	assert.Equal(t, uint64(50), bal.Uint64())

	unused, err := env.ls.OnAssetTransfer(ctx, "other-token", "alice", uint256.NewInt(7), "")
	require.ErrorIs(t, err, ErrIllegalAsset)
	assert.Equal(t, uint64(7), unused.Uint64())
	_, err = env.ls.OnAssetTransfer(ctx, "gov-token", "alice", nil, "")
	require.ErrorIs(t, err, ErrInvalidAmount)
}
