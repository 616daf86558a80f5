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
	"fmt"
	"slices"
	"time"

	"github.com/blinklabs-io/referendum/database/models"
	"github.com/blinklabs-io/referendum/event"
	"github.com/blinklabs-io/referendum/session"
	"github.com/holiman/uint256"
)

type Proposal struct {
	ID          uint32
	Proposer    string
	LockAmount  uint256.Int
	Description string
	Policy      VotePolicy
	Kind        ProposalKind
	Status      Status
	// VoteCounts holds approve, reject and nonsense tallies followed by the
	// total live ballots at the last vote
	VoteCounts  [4]uint256.Int
	SessionID   uint32
	StartOffset time.Duration
	Lasts       time.Duration
}

func (p *Proposal) StartTime(clock session.Clock) time.Time {
	return clock.WindowStart(p.SessionID).Add(p.StartOffset)
}

func (p *Proposal) EndTime(clock session.Clock) time.Time {
	return p.StartTime(clock).Add(p.Lasts)
}

// DeriveStatus returns the status implied by the stored status and the
// time. It never moves a proposal backwards.
func (p *Proposal) DeriveStatus(clock session.Clock, now time.Time) Status {
	switch p.Status {
	case StatusWarmUp:
		if now.After(p.EndTime(clock)) {
			return StatusExpired
		}
		if now.After(p.StartTime(clock)) {
			return StatusInProgress
		}
	case StatusInProgress:
		if now.After(p.EndTime(clock)) {
			return StatusExpired
		}
	}
	return p.Status
}

type AddProposalRequest struct {
	Proposer string
	// Deposit is the bond attached to the request. It must already be in
	// custody. Anything above the configured bond is refunded.
	Deposit     *uint256.Int
	Description string
	Kind        ProposalKind
	// PolicyType selects one of the owner configured policies
	PolicyType  PolicyType
	SessionID   uint32
	StartOffset time.Duration
	Lasts       time.Duration
}

// AddProposal schedules a proposal in a session window and returns its id
func (ls *LedgerState) AddProposal(
	ctx context.Context,
	req AddProposalRequest,
) (uint32, error) {
	var id uint32
	err := ls.mutate(ctx, "add_proposal", func(m *mutation) error {
		if err := m.refresh(); err != nil {
			return err
		}
		var err error
		id, err = m.addProposal(req)
		return err
	})
	return id, err
}

func (m *mutation) addProposal(req AddProposalRequest) (uint32, error) {
	if req.Proposer == "" {
		return 0, ErrInvalidAccount
	}
	if err := checkAmount(req.Deposit); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInsufficientBond, err)
	}
	bond := &m.state.lockAmountPerProposal
	if req.Deposit.Lt(bond) {
		return 0, fmt.Errorf(
			"%w: deposit %s, need %s",
			ErrInsufficientBond,
			req.Deposit.Dec(),
			bond.Dec(),
		)
	}
	if req.Kind != ProposalKindVote {
		return 0, fmt.Errorf("%w: %s", ErrInvalidProposalKind, req.Kind)
	}
	if req.SessionID < m.window {
		return 0, fmt.Errorf(
			"%w: session %d, current %d",
			ErrSessionInPast,
			req.SessionID,
			m.window,
		)
	}
	if !m.state.ring.Contains(req.SessionID) {
		return 0, fmt.Errorf(
			"%w: session %d, current %d",
			ErrSessionOutOfRange,
			req.SessionID,
			m.window,
		)
	}
	clock := m.state.clock
	if req.StartOffset < 0 || req.Lasts <= 0 ||
		req.StartOffset+req.Lasts >= clock.WindowLength {
		return 0, fmt.Errorf(
			"%w: offset %s, lasts %s, window %s",
			ErrProposalTooLong,
			req.StartOffset,
			req.Lasts,
			clock.WindowLength,
		)
	}
	if req.PolicyType != PolicyRelative && req.PolicyType != PolicyAbsolute {
		return 0, fmt.Errorf("%w: type %d", ErrInvalidVotePolicy, req.PolicyType)
	}
	policy := m.state.policies[req.PolicyType]
	p := &Proposal{
		ID:          m.state.nextProposalID,
		Proposer:    req.Proposer,
		LockAmount:  *bond,
		Description: req.Description,
		Policy:      policy,
		Kind:        req.Kind,
		Status:      StatusWarmUp,
		SessionID:   req.SessionID,
		StartOffset: req.StartOffset,
		Lasts:       req.Lasts,
	}
	if !p.StartTime(clock).After(m.now) {
		return 0, fmt.Errorf(
			"%w: starts %s",
			ErrStartInPast,
			p.StartTime(clock).Format(time.RFC3339),
		)
	}
	if req.Deposit.Gt(bond) {
		excess := new(uint256.Int).Sub(req.Deposit, bond)
		if _, err := m.issueTransfer(TransferRefund, req.Proposer, excess, "excess proposal bond"); err != nil {
			return 0, err
		}
	}
	m.state.nextProposalID++
	if err := m.putProposal(p); err != nil {
		return 0, err
	}
	if err := m.updateBucket(p.SessionID, func(ids []uint32) []uint32 {
		return append(ids, p.ID)
	}); err != nil {
		return 0, err
	}
	m.emit(event.ProposalEventType, event.ProposalEvent{
		ProposalID: p.ID,
		Proposer:   p.Proposer,
		Status:     p.Status.String(),
	})
	m.onCommit(func() {
		m.ls.metrics.proposals.WithLabelValues(StatusWarmUp.String()).Inc()
		m.ls.logger.Info(
			"proposal added",
			"id", p.ID,
			"proposer", p.Proposer,
			"session", p.SessionID,
			"policy", p.Policy.String(),
		)
	})
	return p.ID, nil
}

// RemoveProposal deletes a proposal that has not started yet and refunds its
// bond. It returns false once the proposal has left warm-up.
func (ls *LedgerState) RemoveProposal(
	ctx context.Context,
	caller string,
	proposalID uint32,
) (bool, error) {
	var removed bool
	err := ls.mutate(ctx, "remove_proposal", func(m *mutation) error {
		if err := m.refresh(); err != nil {
			return err
		}
		p, err := m.getProposal(proposalID)
		if err != nil {
			return err
		}
		if p.Proposer != caller {
			return fmt.Errorf("%w: proposal %d", ErrNotProposer, proposalID)
		}
		if m.deriveStatus(p) != StatusWarmUp {
			return m.putProposal(p)
		}
		if !p.LockAmount.IsZero() {
			if _, err := m.issueTransfer(TransferRefund, p.Proposer, &p.LockAmount, "removed proposal bond"); err != nil {
				return err
			}
		}
		if err := m.ls.db.DeleteProposal(p.ID, m.txn); err != nil {
			return err
		}
		if err := m.updateBucket(p.SessionID, func(ids []uint32) []uint32 {
			return slices.DeleteFunc(ids, func(id uint32) bool {
				return id == p.ID
			})
		}); err != nil {
			return err
		}
		removed = true
		m.onCommit(func() {
			m.ls.logger.Info("proposal removed", "id", p.ID, "proposer", caller)
		})
		return nil
	})
	return removed, err
}

// RedeemExpired releases the bond of an expired proposal to its proposer. It
// returns false when the proposal is not expired or the bond is gone.
func (ls *LedgerState) RedeemExpired(
	ctx context.Context,
	caller string,
	proposalID uint32,
) (bool, error) {
	var redeemed bool
	err := ls.mutate(ctx, "redeem_expired", func(m *mutation) error {
		if err := m.refresh(); err != nil {
			return err
		}
		p, err := m.getProposal(proposalID)
		if err != nil {
			return err
		}
		if p.Proposer != caller {
			return fmt.Errorf("%w: proposal %d", ErrNotProposer, proposalID)
		}
		if m.deriveStatus(p) == StatusExpired && !p.LockAmount.IsZero() {
			if err := m.releaseBond(p); err != nil {
				return err
			}
			redeemed = true
		}
		return m.putProposal(p)
	})
	return redeemed, err
}

// deriveStatus applies the time based transitions to p and records any
// change
func (m *mutation) deriveStatus(p *Proposal) Status {
	m.setStatus(p, p.DeriveStatus(m.state.clock, m.now))
	return p.Status
}

func (m *mutation) setStatus(p *Proposal, status Status) {
	if status == p.Status {
		return
	}
	prev := p.Status
	p.Status = status
	m.emit(event.ProposalEventType, event.ProposalEvent{
		ProposalID: p.ID,
		Proposer:   p.Proposer,
		Previous:   prev.String(),
		Status:     status.String(),
	})
	m.onCommit(func() {
		m.ls.metrics.proposals.WithLabelValues(status.String()).Inc()
		m.ls.logger.Info(
			"proposal status changed",
			"id", p.ID,
			"from", prev.String(),
			"to", status.String(),
		)
	})
}

// releaseBond pays the escrowed bond back to the proposer. The bond is
// zeroed so it cannot be released twice.
func (m *mutation) releaseBond(p *Proposal) error {
	if p.LockAmount.IsZero() {
		return nil
	}
	if _, err := m.issueTransfer(
		TransferBond,
		p.Proposer,
		&p.LockAmount,
		fmt.Sprintf("proposal %d bond", p.ID),
	); err != nil {
		return err
	}
	p.LockAmount.Clear()
	return nil
}

func (m *mutation) updateBucket(window uint32, fn func([]uint32) []uint32) error {
	bucket, err := m.ls.db.GetBucket(window, m.txn)
	if err != nil {
		return err
	}
	bucket.ProposalIDs = fn(bucket.ProposalIDs)
	if len(bucket.ProposalIDs) == 0 {
		return m.ls.db.DeleteBucket(window, m.txn)
	}
	return m.ls.db.SetBucket(&models.Bucket{
		Window:      window,
		ProposalIDs: bucket.ProposalIDs,
	}, m.txn)
}
