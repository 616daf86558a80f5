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

package database

import (
	"errors"
	"testing"
	"time"

	"github.com/blinklabs-io/referendum/database/models"
	"github.com/blinklabs-io/referendum/database/types"
	"github.com/blinklabs-io/referendum/rational"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := New(&Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func TestStateRoundTrip(t *testing.T) {
	db := newTestDatabase(t)
	_, err := db.GetState(nil)
	require.ErrorIs(t, err, models.ErrStateNotFound)

	state := &models.State{
		Owner:                 "owner",
		LockedAsset:           "gov-token",
		Genesis:               time.Unix(100, 0).UnixNano(),
		WindowLength:          int64(30 * 24 * time.Hour),
		DayLength:             int64(24 * time.Hour),
		LockAmountPerProposal: types.NewAmountUint64(10),
		NonsenseThreshold:     rational.New(1, 2),
		Ring: models.Ring{
			Slots: []models.RingSlot{
				{SessionID: 0, ExpireAmount: types.NewAmountUint64(5)},
				{SessionID: 1},
			},
			Initialized: true,
			TotalBallot: types.NewAmountUint64(5),
		},
	}
	err = db.Transaction(true).Do(func(txn *Txn) error {
		return db.SetState(state, txn)
	})
	require.NoError(t, err)

	out, err := db.GetState(nil)
	require.NoError(t, err)
	assert.Equal(t, state, out)
}

func TestTxnRollbackOnError(t *testing.T) {
	db := newTestDatabase(t)
	errTest := errors.New("test error")
	err := db.Transaction(true).Do(func(txn *Txn) error {
		if err := db.SetAccount("alice", &models.AccountRecord{}, txn); err != nil {
			return err
		}
		return errTest
	})
	require.ErrorIs(t, err, errTest)
	_, err = db.GetAccount("alice", nil)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
	accounts, err := db.GetAccounts(0, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestTxnRollbackOnPanic(t *testing.T) {
	db := newTestDatabase(t)
	err := db.Transaction(true).Do(func(txn *Txn) error {
		if err := db.SetAccount("alice", &models.AccountRecord{}, txn); err != nil {
			return err
		}
		panic("boom")
	})
	require.ErrorIs(t, err, ErrTxnPanic)
	_, err = db.GetAccount("alice", nil)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestDeleteAccountRemovesVotes(t *testing.T) {
	db := newTestDatabase(t)
	now := time.Now()
	err := db.Transaction(true).Do(func(txn *Txn) error {
		for _, acct := range []string{"al", "alice"} {
			if err := db.SetAccount(acct, &models.AccountRecord{LockingAmount: types.NewAmountUint64(1)}, txn); err != nil {
				return err
			}
			for pid := range uint32(3) {
				vote := &models.VoteRecord{Vote: 1, Amount: types.NewAmountUint64(uint64(pid))}
				if err := db.SetVote(acct, pid, vote, now, txn); err != nil {
					return err
				}
			}
		}
		return nil
	})
	require.NoError(t, err)

	vote, err := db.GetVote("alice", 2, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), vote.Amount.Int().Uint64())

	err = db.Transaction(true).Do(func(txn *Txn) error {
		return db.DeleteAccount("al", txn)
	})
	require.NoError(t, err)

	_, err = db.GetVote("al", 1, nil)
	assert.ErrorIs(t, err, models.ErrVoteNotFound)
	_, err = db.GetAccount("al", nil)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
	votes, err := db.GetVotesByAccount("alice", nil)
	require.NoError(t, err)
	assert.Len(t, votes, 3)
	votes, err = db.GetVotesByProposal(1, nil)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, "alice", votes[0].AccountID)
}

func TestProposalsAndBuckets(t *testing.T) {
	db := newTestDatabase(t)
	bucket, err := db.GetBucket(4, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), bucket.Window)
	assert.Empty(t, bucket.ProposalIDs)

	start := time.Unix(1000, 0)
	err = db.Transaction(true).Do(func(txn *Txn) error {
		rec := &models.ProposalRecord{ID: 1, Proposer: "bob", SessionID: 4}
		if err := db.SetProposal(rec, start, start.Add(time.Hour), txn); err != nil {
			return err
		}
		return db.SetBucket(&models.Bucket{Window: 4, ProposalIDs: []uint32{1}}, txn)
	})
	require.NoError(t, err)

	rec, err := db.GetProposal(1, nil)
	require.NoError(t, err)
	assert.Equal(t, "bob", rec.Proposer)
	bucket, err = db.GetBucket(4, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, bucket.ProposalIDs)
	list, err := db.GetProposals(models.ProposalFilter{Proposer: "bob"}, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].EndTime.Equal(start.Add(time.Hour)))

	err = db.Transaction(true).Do(func(txn *Txn) error {
		if err := db.DeleteProposal(1, txn); err != nil {
			return err
		}
		return db.DeleteBucket(4, txn)
	})
	require.NoError(t, err)
	_, err = db.GetProposal(1, nil)
	assert.ErrorIs(t, err, models.ErrProposalNotFound)
	list, err = db.GetProposals(models.ProposalFilter{}, nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTransfers(t *testing.T) {
	db := newTestDatabase(t)
	_, err := db.GetTransfer(1, nil)
	assert.ErrorIs(t, err, models.ErrTransferNotFound)

	err = db.Transaction(true).Do(func(txn *Txn) error {
		for token := uint64(1); token <= 3; token++ {
			rec := &models.TransferRecord{
				Token:    token,
				Account:  "alice",
				Amount:   types.NewAmountUint64(token * 10),
				IssuedAt: time.Now().UnixNano(),
			}
			if token == 2 {
				rec.Status = 1
			}
			if err := db.SetTransfer(rec, txn); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	pending := uint8(0)
	list, err := db.GetTransfers(&pending, nil)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint64(1), list[0].Token)
	assert.Equal(t, uint64(3), list[1].Token)
	rec, err := db.GetTransfer(3, nil)
	require.NoError(t, err)
	assert.Equal(t, "30", rec.Amount.String())
}

func TestWriteRequiresTxn(t *testing.T) {
	db := newTestDatabase(t)
	assert.ErrorIs(t, db.SetState(&models.State{}, nil), types.ErrNilTxn)
	assert.ErrorIs(t, db.SetAccount("x", &models.AccountRecord{}, nil), types.ErrNilTxn)
}

func TestPersistentReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := New(&Config{DataDir: dir})
	require.NoError(t, err)
	err = db.Transaction(true).Do(func(txn *Txn) error {
		return db.SetState(&models.State{Owner: "owner"}, txn)
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = New(&Config{DataDir: dir})
	require.NoError(t, err)
	defer db.Close()
	state, err := db.GetState(nil)
	require.NoError(t, err)
	assert.Equal(t, "owner", state.Owner)
}

func TestUnknownPlugins(t *testing.T) {
	_, err := New(&Config{BlobPlugin: "nope"})
	assert.Error(t, err)
	_, err = New(&Config{MetadataPlugin: "nope"})
	assert.Error(t, err)
	_, err = New(&Config{MetadataPlugin: "postgres"})
	assert.Error(t, err)
}

func TestCommitTimestampError(t *testing.T) {
	err := CommitTimestampError{MetadataTimestamp: 100, BlobTimestamp: 200}
	assert.True(t, err.IndexBehind())
	assert.Contains(t, err.Error(), "metadata 100, blob 200")
	err = CommitTimestampError{MetadataTimestamp: 200, BlobTimestamp: 100}
	assert.False(t, err.IndexBehind())
}

func TestCommitStampsBothStores(t *testing.T) {
	db := newTestDatabase(t)
	require.NoError(t, db.Transaction(true).Do(func(txn *Txn) error {
		return nil
	}))
	metaTs, err := db.Metadata().GetCommitTimestamp()
	require.NoError(t, err)
	blobTs, err := db.Blob().GetCommitTimestamp()
	require.NoError(t, err)
	assert.Positive(t, metaTs)
	assert.Equal(t, metaTs, blobTs)
	assert.NoError(t, db.checkCommitTimestamp())
}
