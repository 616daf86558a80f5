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

package referendum

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/blinklabs-io/referendum/asset"
	"github.com/blinklabs-io/referendum/ledger"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testGenesis = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testNode struct {
	*Node
	clock  *testClock
	ledger *custodyLedger
}

func startTestNode(t *testing.T, opts ...ConfigOptionFunc) *testNode {
	t.Helper()
	clock := &testClock{now: testGenesis.Add(time.Second)}
	cfgOpts := []ConfigOptionFunc{
		WithOwner("owner"),
		WithGenesis(testGenesis),
		WithNowFunc(clock.Now),
		WithLockAmountPerProposal(uint256.NewInt(10)),
		WithPrometheusRegistry(prometheus.NewRegistry()),
	}
	n, err := New(NewConfig(append(cfgOpts, opts...)...))
	require.NoError(t, err)
	require.NoError(t, n.start(context.Background()))
	t.Cleanup(func() {
		_ = n.Stop()
	})
	return &testNode{
		Node:  n,
		clock: clock,
		ledger: &custodyLedger{
			LedgerState: n.LedgerState(),
			asset:       n.asset,
		},
	}
}

func (tn *testNode) balance(t *testing.T, account string) uint64 {
	t.Helper()
	bal, err := tn.asset.BalanceOf(context.Background(), account)
	require.NoError(t, err)
	return bal.Uint64()
}

func (tn *testNode) deposit(t *testing.T, account string, amount uint64, msg string) {
	t.Helper()
	ctx := context.Background()
	_, err := tn.ledger.Register(ctx, account)
	require.NoError(t, err)
	unused, err := tn.ledger.OnAssetTransfer(
		ctx,
		DefaultAssetID,
		account,
		uint256.NewInt(amount),
		msg,
	)
	require.NoError(t, err)
	require.True(t, unused.IsZero())
}

func TestNewValidation(t *testing.T) {
	testDefs := []struct {
		name string
		opt  ConfigOptionFunc
	}{
		{name: "empty asset", opt: WithAsset("", "custody")},
		{name: "empty custody", opt: WithAsset("token", "")},
		{name: "negative workers", opt: WithTransferWorkers(-1)},
		{
			name: "negative window",
			opt:  WithSessionTiming(-time.Hour, 0, 0),
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := New(NewConfig(testDef.opt))
			assert.Error(t, err)
		})
	}
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.NotNil(t, cfg.logger)
	assert.Equal(t, DefaultAssetID, cfg.assetID)
	assert.Equal(t, DefaultCustodyAccount, cfg.custodyAccount)
	assert.Equal(t, DefaultShutdownTimeout, cfg.shutdownTimeout)
	logger := slog.Default()
	cfg = NewConfig(
		WithLogger(logger),
		WithDatabasePath("/tmp/referendum"),
		WithTransferWorkers(3),
		WithApiListenAddress(":9000"),
	)
	assert.Same(t, logger, cfg.logger)
	lsCfg := cfg.ledgerConfig()
	assert.Equal(t, "/tmp/referendum", lsCfg.DataDir)
	assert.Equal(t, 3, lsCfg.TransferWorkers)
	assert.Equal(t, ":9000", cfg.apiListenAddress)
}

func TestDepositMovesFundsIntoCustody(t *testing.T) {
	tn := startTestNode(t)
	tn.deposit(t, "alice", 100, "1")
	assert.Equal(t, uint64(0), tn.balance(t, "alice"))
	assert.Equal(t, uint64(100), tn.balance(t, DefaultCustodyAccount))
	acct, err := tn.LedgerState().AccountState(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "100", acct.LockingAmount.Dec())
}

func TestDepositRejected(t *testing.T) {
	tn := startTestNode(t)
	ctx := context.Background()
	// Unregistered with the ledger: the minted funds go back to the sender
	unused, err := tn.ledger.OnAssetTransfer(
		ctx,
		DefaultAssetID,
		"mallory",
		uint256.NewInt(50),
		"",
	)
	require.ErrorIs(t, err, ledger.ErrNotRegistered)
	assert.Equal(t, "50", unused.Dec())
	assert.Equal(t, uint64(50), tn.balance(t, "mallory"))
	assert.Equal(t, uint64(0), tn.balance(t, DefaultCustodyAccount))

	_, err = tn.ledger.OnAssetTransfer(
		ctx,
		"other-token",
		"mallory",
		uint256.NewInt(50),
		"",
	)
	require.ErrorIs(t, err, ledger.ErrIllegalAsset)
	assert.Equal(t, uint64(50), tn.balance(t, "mallory"))

	_, err = tn.ledger.OnAssetTransfer(ctx, DefaultAssetID, "mallory", nil, "")
	require.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

func TestWithdrawPaysOut(t *testing.T) {
	tn := startTestNode(t)
	ctx := context.Background()
	tn.deposit(t, "alice", 100, "1")
	tn.clock.Advance(31 * 24 * time.Hour)
	ticket, err := tn.ledger.Withdraw(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "100", ticket.Amount.Dec())
	resolved, err := tn.LedgerState().DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, resolved)
	assert.Equal(t, uint64(100), tn.balance(t, "alice"))
	assert.Equal(t, uint64(0), tn.balance(t, DefaultCustodyAccount))
}

func TestWithdrawWithWorkers(t *testing.T) {
	tn := startTestNode(t, WithTransferWorkers(2))
	tn.deposit(t, "alice", 100, "1")
	tn.clock.Advance(31 * 24 * time.Hour)
	_, err := tn.ledger.Withdraw(context.Background(), "alice")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		bal, err := tn.asset.BalanceOf(context.Background(), "alice")
		return err == nil && bal.Uint64() == 100
	}, 5*time.Second, 10*time.Millisecond)
}

func TestAddProposalTakesBond(t *testing.T) {
	tn := startTestNode(t)
	ctx := context.Background()
	id, err := tn.ledger.AddProposal(ctx, ledger.AddProposalRequest{
		Proposer:    "alice",
		Deposit:     uint256.NewInt(15),
		Description: "raise the bond",
		Kind:        ledger.ProposalKindVote,
		SessionID:   0,
		StartOffset: time.Hour,
		Lasts:       24 * time.Hour,
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), id)
	assert.Equal(t, uint64(15), tn.balance(t, DefaultCustodyAccount))
	// The excess comes back through a refund transfer
	_, err = tn.LedgerState().DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), tn.balance(t, "alice"))
	assert.Equal(t, uint64(10), tn.balance(t, DefaultCustodyAccount))

	// A rejected proposal hands the whole deposit back
	_, err = tn.ledger.AddProposal(ctx, ledger.AddProposalRequest{
		Proposer:    "bob",
		Deposit:     uint256.NewInt(10),
		Kind:        ledger.ProposalKindVote,
		SessionID:   0,
		StartOffset: 0,
		Lasts:       time.Hour,
	})
	require.ErrorIs(t, err, ledger.ErrStartInPast)
	assert.Equal(t, uint64(10), tn.balance(t, "bob"))
	assert.Equal(t, uint64(10), tn.balance(t, DefaultCustodyAccount))

	_, err = tn.ledger.AddProposal(ctx, ledger.AddProposalRequest{
		Proposer: "bob",
		Kind:     ledger.ProposalKindVote,
	})
	require.ErrorIs(t, err, ledger.ErrInsufficientBond)
}

func TestRestartSeedsCustody(t *testing.T) {
	dataDir := t.TempDir()
	ctx := context.Background()
	tn := startTestNode(t, WithDatabasePath(dataDir))
	tn.deposit(t, "alice", 100, "2")
	_, err := tn.ledger.AddProposal(ctx, ledger.AddProposalRequest{
		Proposer:    "alice",
		Deposit:     uint256.NewInt(10),
		Kind:        ledger.ProposalKindVote,
		SessionID:   1,
		StartOffset: time.Hour,
		Lasts:       time.Hour,
	})
	require.NoError(t, err)
	require.NoError(t, tn.Stop())

	restarted := startTestNode(t, WithDatabasePath(dataDir))
	assert.Equal(t, uint64(110), restarted.balance(t, DefaultCustodyAccount))
	assert.Equal(t, uint64(0), restarted.balance(t, "alice"))
	meta, err := restarted.LedgerState().Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, "100", meta.LockedAmount.Dec())
	assert.Equal(t, uint32(1), meta.ProposalCount)

	// The reopened wallet receives the principal
	restarted.clock.Advance(90 * 24 * time.Hour)
	_, err = restarted.ledger.Withdraw(ctx, "alice")
	require.NoError(t, err)
	resolved, err := restarted.LedgerState().DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, resolved)
	assert.Equal(t, uint64(100), restarted.balance(t, "alice"))
	assert.Equal(t, uint64(10), restarted.balance(t, DefaultCustodyAccount))
}

func TestLocalAssetRequiresWallet(t *testing.T) {
	a := newLocalAsset(DefaultAssetID, DefaultCustodyAccount)
	ctx := context.Background()
	require.NoError(t, a.Mint(DefaultCustodyAccount, uint256.NewInt(50)))
	err := a.Transfer(ctx, asset.TransferRequest{
		Token:  1,
		To:     "stranger",
		Amount: *uint256.NewInt(5),
	})
	require.ErrorIs(t, err, asset.ErrNotRegistered)
	_, err = a.BalanceOf(ctx, "stranger")
	require.Error(t, err)

	a.Register("stranger")
	require.NoError(t, a.Transfer(ctx, asset.TransferRequest{
		Token:  2,
		To:     "stranger",
		Amount: *uint256.NewInt(5),
	}))
	bal, err := a.BalanceOf(ctx, DefaultCustodyAccount)
	require.NoError(t, err)
	assert.Equal(t, uint64(45), bal.Uint64())
}

func TestRunReturnsOnCancel(t *testing.T) {
	n, err := New(NewConfig(WithOwner("owner")))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, n.Run(ctx))
	require.NotNil(t, n.LedgerState())
	require.NoError(t, n.Stop())
	// Stop is idempotent
	require.NoError(t, n.Stop())
}
