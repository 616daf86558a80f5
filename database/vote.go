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
	"time"

	"github.com/blinklabs-io/referendum/database/models"
	"github.com/blinklabs-io/referendum/database/types"
)

func (d *Database) GetVote(
	accountID string,
	proposalID uint32,
	txn *Txn,
) (*models.VoteRecord, error) {
	var ret models.VoteRecord
	err := d.getRecord(
		models.RecordKindVote,
		types.VoteBlobKey(accountID, proposalID),
		&ret,
		txn,
	)
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil, models.ErrVoteNotFound
		}
		return nil, err
	}
	return &ret, nil
}

// SetVote writes a vote record and its queryable projection
func (d *Database) SetVote(
	accountID string,
	proposalID uint32,
	vote *models.VoteRecord,
	addedAt time.Time,
	txn *Txn,
) error {
	if err := d.setRecord(
		models.RecordKindVote,
		types.VoteBlobKey(accountID, proposalID),
		vote,
		txn,
	); err != nil {
		return err
	}
	return d.Metadata().SetVote(
		&models.Vote{
			AccountID:  accountID,
			ProposalID: proposalID,
			Vote:       vote.Vote,
			Amount:     vote.Amount,
			AddedAt:    addedAt.UnixMilli(),
		},
		txn.Metadata(),
	)
}

func (d *Database) GetVotesByAccount(
	accountID string,
	txn *Txn,
) ([]models.Vote, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.Metadata().GetVotesByAccount(accountID, txn.Metadata())
}

func (d *Database) GetVotesByProposal(
	proposalID uint32,
	txn *Txn,
) ([]models.Vote, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.Metadata().GetVotesByProposal(proposalID, txn.Metadata())
}
