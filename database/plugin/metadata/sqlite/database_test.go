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

package sqlite

import (
	"testing"
	"time"

	"github.com/blinklabs-io/referendum/database/models"
	"github.com/blinklabs-io/referendum/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *MetadataStoreSqlite {
	t.Helper()
	store, err := New("", nil, prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func TestInMemoryStoresAreIsolated(t *testing.T) {
	a := newTestStore(t)
	b := newTestStore(t)
	require.NoError(t, a.SetAccount(&models.Account{AccountID: "alice"}, nil))
	accounts, err := b.GetAccounts(0, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestAccountUpsert(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SetAccount(&models.Account{
		AccountID:     "bob",
		LockingAmount: types.NewAmountUint64(10),
	}, nil))
	require.NoError(t, store.SetAccount(&models.Account{
		AccountID:          "bob",
		LockingAmount:      types.NewAmountUint64(25),
		BallotAmount:       types.NewAmountUint64(100),
		UnlockingSessionID: 9,
	}, nil))
	require.NoError(t, store.SetAccount(&models.Account{AccountID: "alice"}, nil))

	accounts, err := store.GetAccounts(0, 0, nil)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "alice", accounts[0].AccountID)
	assert.Equal(t, "25", accounts[1].LockingAmount.String())
	assert.Equal(t, "100", accounts[1].BallotAmount.String())
	assert.Equal(t, uint32(9), accounts[1].UnlockingSessionID)

	require.NoError(t, store.DeleteAccount("bob", nil))
	accounts, err = store.GetAccounts(1, 0, nil)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "alice", accounts[0].AccountID)
}

func TestProposalFilter(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()
	for i, p := range []models.Proposal{
		{ProposalID: 0, Proposer: "alice", Status: 0, SessionID: 1},
		{ProposalID: 1, Proposer: "bob", Status: 1, SessionID: 1},
		{ProposalID: 2, Proposer: "alice", Status: 2, SessionID: 2},
	} {
		p.Description = "proposal"
		p.StartTime = now
		p.EndTime = now.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.SetProposal(&p, nil))
	}

	all, err := store.GetProposals(models.ProposalFilter{}, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byProposer, err := store.GetProposals(models.ProposalFilter{Proposer: "alice"}, nil)
	require.NoError(t, err)
	require.Len(t, byProposer, 2)
	assert.Equal(t, uint32(2), byProposer[1].ProposalID)

	session := uint32(1)
	bySession, err := store.GetProposals(models.ProposalFilter{
		SessionID: &session,
		Statuses:  []uint8{1, 2},
	}, nil)
	require.NoError(t, err)
	require.Len(t, bySession, 1)
	assert.Equal(t, "bob", bySession[0].Proposer)

	// Status update through upsert
	updated := models.Proposal{
		ProposalID: 1,
		Proposer:   "bob",
		Status:     3,
		Approve:    types.NewAmountUint64(30),
		StartTime:  now,
		EndTime:    now,
	}
	require.NoError(t, store.SetProposal(&updated, nil))
	byStatus, err := store.GetProposals(models.ProposalFilter{Statuses: []uint8{3}}, nil)
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "30", byStatus[0].Approve.String())

	require.NoError(t, store.DeleteProposal(1, nil))
	all, err = store.GetProposals(models.ProposalFilter{}, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestVotesAndTransfers(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SetVote(&models.Vote{AccountID: "alice", ProposalID: 2, Amount: types.NewAmountUint64(5)}, nil))
	require.NoError(t, store.SetVote(&models.Vote{AccountID: "alice", ProposalID: 1, Amount: types.NewAmountUint64(5)}, nil))
	require.NoError(t, store.SetVote(&models.Vote{AccountID: "bob", ProposalID: 1, Vote: 1, Amount: types.NewAmountUint64(7)}, nil))
	// Top-up of an existing vote
	require.NoError(t, store.SetVote(&models.Vote{AccountID: "alice", ProposalID: 1, Amount: types.NewAmountUint64(9)}, nil))

	votes, err := store.GetVotesByAccount("alice", nil)
	require.NoError(t, err)
	require.Len(t, votes, 2)
	assert.Equal(t, uint32(1), votes[0].ProposalID)
	assert.Equal(t, "9", votes[0].Amount.String())

	votes, err = store.GetVotesByProposal(1, nil)
	require.NoError(t, err)
	assert.Len(t, votes, 2)

	require.NoError(t, store.DeleteVotesByAccount("alice", nil))
	votes, err = store.GetVotesByAccount("alice", nil)
	require.NoError(t, err)
	assert.Empty(t, votes)

	now := time.Now()
	require.NoError(t, store.SetTransfer(&models.Transfer{Token: 2, AccountID: "bob", Amount: types.NewAmountUint64(3), IssuedAt: now}, nil))
	require.NoError(t, store.SetTransfer(&models.Transfer{Token: 1, AccountID: "alice", Amount: types.NewAmountUint64(4), IssuedAt: now}, nil))
	require.NoError(t, store.SetTransfer(&models.Transfer{Token: 2, Status: 1, AccountID: "bob", Amount: types.NewAmountUint64(3), IssuedAt: now}, nil))
	pending := uint8(0)
	transfers, err := store.GetTransfers(&pending, nil)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, uint64(1), transfers[0].Token)
	transfers, err = store.GetTransfers(nil, nil)
	require.NoError(t, err)
	assert.Len(t, transfers, 2)
}

func TestTransactionRollback(t *testing.T) {
	store := newTestStore(t)
	txn := store.Transaction()
	require.NoError(t, store.SetAccount(&models.Account{AccountID: "carol"}, txn))
	require.NoError(t, txn.Rollback())
	assert.Error(t, store.SetAccount(&models.Account{AccountID: "carol"}, txn))

	accounts, err := store.GetAccounts(0, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	txn = store.Transaction()
	require.NoError(t, store.SetCommitTimestamp(42, txn))
	require.NoError(t, txn.Commit())
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(42), ts)
}
