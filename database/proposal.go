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

func (d *Database) GetProposal(
	proposalID uint32,
	txn *Txn,
) (*models.ProposalRecord, error) {
	var ret models.ProposalRecord
	err := d.getRecord(
		models.RecordKindProposal,
		types.ProposalBlobKey(proposalID),
		&ret,
		txn,
	)
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil, models.ErrProposalNotFound
		}
		return nil, err
	}
	return &ret, nil
}

// SetProposal writes the proposal record and its queryable projection. The
// voting period bounds are only stored in the projection.
func (d *Database) SetProposal(
	proposal *models.ProposalRecord,
	startTime time.Time,
	endTime time.Time,
	txn *Txn,
) error {
	if err := d.setRecord(
		models.RecordKindProposal,
		types.ProposalBlobKey(proposal.ID),
		proposal,
		txn,
	); err != nil {
		return err
	}
	return d.Metadata().SetProposal(
		&models.Proposal{
			ProposalID:  proposal.ID,
			Proposer:    proposal.Proposer,
			Description: proposal.Description,
			Kind:        proposal.Kind,
			PolicyKind:  proposal.Policy.Kind,
			Status:      proposal.Status,
			SessionID:   proposal.SessionID,
			LockAmount:  proposal.LockAmount,
			Approve:     proposal.VoteCounts[0],
			Reject:      proposal.VoteCounts[1],
			Nonsense:    proposal.VoteCounts[2],
			Total:       proposal.VoteCounts[3],
			StartTime:   startTime,
			EndTime:     endTime,
			UpdatedAt:   time.Now(),
		},
		txn.Metadata(),
	)
}

func (d *Database) DeleteProposal(proposalID uint32, txn *Txn) error {
	if err := d.deleteRecord(types.ProposalBlobKey(proposalID), txn); err != nil {
		return err
	}
	return d.Metadata().DeleteProposal(proposalID, txn.Metadata())
}

func (d *Database) GetProposals(
	filter models.ProposalFilter,
	txn *Txn,
) ([]models.Proposal, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.Metadata().GetProposals(filter, txn.Metadata())
}

// GetBucket returns the proposals scheduled in window. A window with no
// stored bucket yields an empty one.
func (d *Database) GetBucket(window uint32, txn *Txn) (*models.Bucket, error) {
	ret := models.Bucket{Window: window}
	err := d.getRecord(
		models.RecordKindBucket,
		types.BucketBlobKey(window),
		&ret,
		txn,
	)
	if err != nil && !errors.Is(err, types.ErrBlobKeyNotFound) {
		return nil, err
	}
	return &ret, nil
}

func (d *Database) SetBucket(bucket *models.Bucket, txn *Txn) error {
	return d.setRecord(
		models.RecordKindBucket,
		types.BucketBlobKey(bucket.Window),
		bucket,
		txn,
	)
}

func (d *Database) DeleteBucket(window uint32, txn *Txn) error {
	return d.deleteRecord(types.BucketBlobKey(window), txn)
}
