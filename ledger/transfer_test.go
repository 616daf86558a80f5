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
	"testing"
	"time"

	"github.com/blinklabs-io/referendum/asset"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fundedWithdraw locks amount through the asset for the current window and
// withdraws it one window later
func (e *testEnv) fundedWithdraw(t *testing.T, account string, amount uint64) *Ticket {
	t.Helper()
	ctx := context.Background()
	e.register(t, account)
	require.NoError(t, e.asset.Mint(account, uint256.NewInt(amount)))
	_, err := e.asset.TransferCall(ctx, account, e.ls, uint256.NewInt(amount), "1")
	require.NoError(t, err)
	e.clock.Advance(testWindow)
	ticket, err := e.ls.Withdraw(ctx, account)
	require.NoError(t, err)
	return ticket
}

func (e *testEnv) balance(t *testing.T, account string) uint64 {
	t.Helper()
	bal, err := e.asset.BalanceOf(context.Background(), account)
	require.NoError(t, err)
	return bal.Uint64()
}

func TestResolveTransferSuccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := env.fundedWithdraw(t, "alice", 10)

	require.NoError(t, env.ls.ResolveTransfer(ctx, ticket.Token, nil))
	transfers := env.transfers(t)
	require.Len(t, transfers, 1)
	assert.Equal(t, TransferSucceeded, transfers[0].Status)
	assert.Empty(t, transfers[0].Error)

	err := env.ls.ResolveTransfer(ctx, ticket.Token, nil)
	require.ErrorIs(t, err, ErrUnknownTransfer)
	err = env.ls.ResolveTransfer(ctx, 99, nil)
	require.ErrorIs(t, err, ErrUnknownTransfer)
}

func TestFailedWithdrawRestoresPrincipal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := env.fundedWithdraw(t, "alice", 10)

	require.NoError(t, env.ls.ResolveTransfer(ctx, ticket.Token, errors.New("receiver rejected")))
	acct, err := env.ls.AccountState(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), acct.LockingAmount.Uint64())
	assert.True(t, acct.BallotAmount.IsZero())
	meta, err := env.ls.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), meta.LockedAmount.Uint64())

	failed := TransferFailed
	transfers, err := env.ls.Transfers(ctx, &failed)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, "receiver rejected", transfers[0].Error)
	require.ErrorIs(t, env.ls.ResolveTransfer(ctx, ticket.Token, nil), ErrUnknownTransfer)

	// The restored principal can be withdrawn again
	retry, err := env.ls.Withdraw(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, ticket.Token+1, retry.Token)
	assert.Equal(t, uint64(10), retry.Amount.Uint64())
}

func TestFailedWithdrawAfterUnregister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := env.fundedWithdraw(t, "alice", 10)
	ok, err := env.ls.Unregister(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, env.ls.ResolveTransfer(ctx, ticket.Token, errors.New("gone")))
	_, err = env.ls.AccountState(ctx, "alice")
	require.ErrorIs(t, err, ErrNotRegistered)
	meta, err := env.ls.Metadata(ctx)
	require.NoError(t, err)
	assert.True(t, meta.LockedAmount.IsZero())
}

func TestDispatchPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fundedWithdraw(t, "alice", 10)
	env.fundedWithdraw(t, "bob", 20)
	assert.Equal(t, uint64(0), env.balance(t, "alice"))
	assert.Equal(t, uint64(30), env.balance(t, "referendum"))

	env.asset.FailWith(func(req asset.TransferRequest) error {
		if req.To == "bob" {
			return errors.New("frozen")
		}
		return nil
	})
	resolved, err := env.ls.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, resolved)
	assert.Equal(t, uint64(10), env.balance(t, "alice"))
	assert.Equal(t, uint64(0), env.balance(t, "bob"))
	acct, err := env.ls.AccountState(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(20), acct.LockingAmount.Uint64())

	resolved, err = env.ls.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, resolved)
}

func TestDispatchPendingWithoutAsset(t *testing.T) {
	env := newTestEnv(t, func(cfg *LedgerStateConfig) {
		cfg.Asset = nil
		cfg.LockedAsset = "gov-token"
	})
	_, err := env.ls.DispatchPending(context.Background())
	require.ErrorIs(t, err, ErrInvalidConfig)
	require.NoError(t, env.ls.Start(context.Background()))
}

func TestDispatcherWorkers(t *testing.T) {
	env := newTestEnv(t, func(cfg *LedgerStateConfig) {
		cfg.TransferWorkers = 2
	})
	ctx := context.Background()
	opts := []goleak.Option{
		goleak.IgnoreCurrent(),
		goleak.IgnoreAnyFunction("database/sql.(*DB).connectionCleaner"),
	}

	// Issued before start, so picked up from the pending set
	first := env.fundedWithdraw(t, "alice", 10)
	require.NoError(t, env.ls.Start(ctx))
	require.NoError(t, env.ls.Start(ctx))
	second := env.fundedWithdraw(t, "bob", 20)

	require.Eventually(t, func() bool {
		pending, err := env.ls.PendingTransfers(ctx)
		return err == nil && len(pending) == 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, uint64(10), env.balance(t, "alice"))
	assert.Equal(t, uint64(20), env.balance(t, "bob"))
	succeeded := TransferSucceeded
	transfers, err := env.ls.Transfers(ctx, &succeeded)
	require.NoError(t, err)
	require.Len(t, transfers, 2)
	assert.Equal(t, first.Token, transfers[0].Token)
	assert.Equal(t, second.Token, transfers[1].Token)

	env.ls.dispatcher.Stop()
	goleak.VerifyNone(t, opts...)
}

func TestLedgerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	env := newTestEnv(t, func(cfg *LedgerStateConfig) {
		cfg.PromRegistry = reg
	})
	env.register(t, "alice", "bob")
	env.lock(t, "alice", 10, 10)
	_, err := env.ls.AppendLock(context.Background(), "alice", uint256.NewInt(5))
	require.NoError(t, err)
	env.addProposal(t, testProposalRequest("alice", 1))

	assert.InDelta(t, 2, testutil.ToFloat64(env.ls.metrics.accounts), 0)
	assert.InDelta(t, 15, testutil.ToFloat64(env.ls.metrics.lockedAmount), 0)
	assert.InDelta(t, 150, testutil.ToFloat64(env.ls.metrics.totalBallot), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(env.ls.metrics.proposalCount), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(env.ls.metrics.locks.WithLabelValues("new")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(env.ls.metrics.locks.WithLabelValues("append")), 0)
	count, err := testutil.GatherAndCount(reg, "referendum_proposal_transitions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
