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
	"errors"
	"fmt"
	"time"

	"github.com/blinklabs-io/referendum/database/models"
	"github.com/blinklabs-io/referendum/database/types"
	"github.com/blinklabs-io/referendum/session"
)

func (s *contractState) toModel() *models.State {
	ret := &models.State{
		Owner:                 s.owner,
		LockedAsset:           s.lockedAsset,
		Genesis:               s.clock.Genesis.UnixNano(),
		WindowLength:          int64(s.clock.WindowLength),
		DayLength:             int64(s.clock.DayLength),
		CurLockAmount:         types.NewAmount(&s.curLockAmount),
		LastProposalID:        s.nextProposalID,
		LockAmountPerProposal: types.NewAmount(&s.lockAmountPerProposal),
		NonsenseThreshold:     s.nonsenseThreshold,
		AccountCount:          s.accountCount,
		LastTransferToken:     s.lastTransferToken,
		Ring: models.Ring{
			Slots:       make([]models.RingSlot, len(s.ring.Slots)),
			Head:        uint32(s.ring.Head), // #nosec G115
			Initialized: s.ring.Initialized,
			TotalBallot: types.NewAmount(&s.ring.TotalBallot),
		},
	}
	for i, slot := range s.ring.Slots {
		ret.Ring.Slots[i] = models.RingSlot{
			SessionID:    slot.SessionID,
			ExpireAmount: types.NewAmount(&slot.ExpireAmount),
		}
	}
	for _, p := range s.policies {
		ret.VotePolicies = append(ret.VotePolicies, policyToModel(p))
	}
	return ret
}

func contractStateFromModel(rec *models.State) (*contractState, error) {
	if len(rec.Ring.Slots) == 0 || int(rec.Ring.Head) >= len(rec.Ring.Slots) {
		return nil, fmt.Errorf("%w: stored ring is malformed", ErrInternal)
	}
	if len(rec.VotePolicies) != 2 {
		return nil, fmt.Errorf(
			"%w: expected 2 stored vote policies, found %d",
			ErrInternal,
			len(rec.VotePolicies),
		)
	}
	ret := &contractState{
		owner:       rec.Owner,
		lockedAsset: rec.LockedAsset,
		clock: session.Clock{
			Genesis:      time.Unix(0, rec.Genesis),
			WindowLength: time.Duration(rec.WindowLength),
			DayLength:    time.Duration(rec.DayLength),
		},
		curLockAmount:         *rec.CurLockAmount.Int(),
		nextProposalID:        rec.LastProposalID,
		lockAmountPerProposal: *rec.LockAmountPerProposal.Int(),
		nonsenseThreshold:     rec.NonsenseThreshold,
		accountCount:          rec.AccountCount,
		lastTransferToken:     rec.LastTransferToken,
		ring: &session.Ring{
			Slots:       make([]session.Info, len(rec.Ring.Slots)),
			Head:        int(rec.Ring.Head),
			Initialized: rec.Ring.Initialized,
			TotalBallot: *rec.Ring.TotalBallot.Int(),
		},
	}
	for i, slot := range rec.Ring.Slots {
		ret.ring.Slots[i] = session.Info{
			SessionID:    slot.SessionID,
			ExpireAmount: *slot.ExpireAmount.Int(),
		}
	}
	for i, p := range rec.VotePolicies {
		ret.policies[i] = policyFromModel(p)
	}
	if err := ret.ring.Check(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	return ret, nil
}

func policyToModel(p VotePolicy) models.VotePolicy {
	return models.VotePolicy{
		Kind:   uint8(p.Type),
		First:  p.First,
		Second: p.Second,
	}
}

func policyFromModel(p models.VotePolicy) VotePolicy {
	return VotePolicy{
		Type:   PolicyType(p.Kind),
		First:  p.First,
		Second: p.Second,
	}
}

func (m *mutation) getAccount(accountID string) (*Account, error) {
	rec, err := m.ls.db.GetAccount(accountID, m.txn)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotRegistered, accountID)
		}
		return nil, err
	}
	return accountFromRecord(accountID, rec), nil
}

func (m *mutation) putAccount(acct *Account) error {
	return m.ls.db.SetAccount(
		acct.ID,
		&models.AccountRecord{
			LockingAmount:      types.NewAmount(&acct.LockingAmount),
			BallotAmount:       types.NewAmount(&acct.BallotAmount),
			UnlockingSessionID: acct.UnlockingSessionID,
		},
		m.txn,
	)
}

func accountFromRecord(accountID string, rec *models.AccountRecord) *Account {
	return &Account{
		ID:                 accountID,
		LockingAmount:      *rec.LockingAmount.Int(),
		BallotAmount:       *rec.BallotAmount.Int(),
		UnlockingSessionID: rec.UnlockingSessionID,
	}
}

// getVote returns nil without error when the account has not voted
func (m *mutation) getVote(accountID string, proposalID uint32) (*AccountVote, error) {
	rec, err := m.ls.db.GetVote(accountID, proposalID, m.txn)
	if err != nil {
		if errors.Is(err, models.ErrVoteNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &AccountVote{
		ProposalID: proposalID,
		Vote:       VoteAction(rec.Vote),
		Amount:     *rec.Amount.Int(),
	}, nil
}

func (m *mutation) putVote(accountID string, vote *AccountVote) error {
	return m.ls.db.SetVote(
		accountID,
		vote.ProposalID,
		&models.VoteRecord{
			Vote:   uint8(vote.Vote),
			Amount: types.NewAmount(&vote.Amount),
		},
		m.now,
		m.txn,
	)
}

func (m *mutation) getProposal(proposalID uint32) (*Proposal, error) {
	rec, err := m.ls.db.GetProposal(proposalID, m.txn)
	if err != nil {
		if errors.Is(err, models.ErrProposalNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrProposalNotFound, proposalID)
		}
		return nil, err
	}
	return proposalFromRecord(rec), nil
}

func (m *mutation) putProposal(p *Proposal) error {
	return m.ls.db.SetProposal(
		p.toRecord(),
		p.StartTime(m.state.clock),
		p.EndTime(m.state.clock),
		m.txn,
	)
}

func (p *Proposal) toRecord() *models.ProposalRecord {
	ret := &models.ProposalRecord{
		ID:          p.ID,
		Proposer:    p.Proposer,
		LockAmount:  types.NewAmount(&p.LockAmount),
		Description: p.Description,
		Policy:      policyToModel(p.Policy),
		Kind:        uint8(p.Kind),
		Status:      uint8(p.Status),
		SessionID:   p.SessionID,
		StartOffset: int64(p.StartOffset),
		Lasts:       int64(p.Lasts),
	}
	for i := range p.VoteCounts {
		ret.VoteCounts[i] = types.NewAmount(&p.VoteCounts[i])
	}
	return ret
}

func proposalFromRecord(rec *models.ProposalRecord) *Proposal {
	ret := &Proposal{
		ID:          rec.ID,
		Proposer:    rec.Proposer,
		LockAmount:  *rec.LockAmount.Int(),
		Description: rec.Description,
		Policy:      policyFromModel(rec.Policy),
		Kind:        ProposalKind(rec.Kind),
		Status:      Status(rec.Status),
		SessionID:   rec.SessionID,
		StartOffset: time.Duration(rec.StartOffset),
		Lasts:       time.Duration(rec.Lasts),
	}
	for i := range rec.VoteCounts {
		ret.VoteCounts[i] = *rec.VoteCounts[i].Int()
	}
	return ret
}

func ticketFromRecord(rec *models.TransferRecord) Ticket {
	return Ticket{
		Token:   rec.Token,
		Kind:    TransferKind(rec.Kind),
		Account: rec.Account,
		Amount:  *rec.Amount.Int(),
		Memo:    rec.Memo,
	}
}
