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

	"github.com/blinklabs-io/referendum/event"
	"github.com/holiman/uint256"
)

// ActProposal casts the caller's live ballot on a proposal and returns the
// weight accepted. Each account votes once per proposal. Later lock
// top-ups are propagated by the append lock path.
func (ls *LedgerState) ActProposal(
	ctx context.Context,
	caller string,
	proposalID uint32,
	action VoteAction,
	memo string,
) (*uint256.Int, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAction, action)
	}
	var accepted *uint256.Int
	err := ls.mutate(ctx, "act_proposal", func(m *mutation) error {
		if err := m.refresh(); err != nil {
			return err
		}
		p, err := m.getProposal(proposalID)
		if err != nil {
			return err
		}
		if status := m.deriveStatus(p); status != StatusInProgress {
			return fmt.Errorf(
				"%w: proposal %d is %s",
				ErrNotVotable,
				proposalID,
				status,
			)
		}
		acct, err := m.getAccount(caller)
		if err != nil {
			return err
		}
		live := acct.LiveBallot(m.window)
		if live.IsZero() {
			return fmt.Errorf("%w: %s", ErrNoBallots, caller)
		}
		existing, err := m.getVote(caller, proposalID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf(
				"%w: %s on proposal %d",
				ErrAlreadyVoted,
				caller,
				proposalID,
			)
		}
		accepted, err = m.applyVote(p, action, live)
		if err != nil {
			return err
		}
		if err := m.putVote(caller, &AccountVote{
			ProposalID: proposalID,
			Vote:       action,
			Amount:     *live,
		}); err != nil {
			return err
		}
		m.emit(event.VoteEventType, event.VoteEvent{
			Account:    caller,
			ProposalID: proposalID,
			Action:     action.String(),
			Amount:     *accepted,
		})
		m.onCommit(func() {
			m.ls.logger.Debug(
				"vote cast",
				"account", caller,
				"proposal", proposalID,
				"action", action.String(),
				"amount", accepted.Dec(),
				"memo", memo,
			)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accepted, nil
}

// applyVote adds amount to a tally of p and re-evaluates its policy. It
// returns the weight accepted, which is zero when p is no longer in
// progress. Approval or rejection releases the bond. Nonsense forfeits it.
func (m *mutation) applyVote(
	p *Proposal,
	action VoteAction,
	amount *uint256.Int,
) (*uint256.Int, error) {
	if m.deriveStatus(p) != StatusInProgress {
		return new(uint256.Int), m.putProposal(p)
	}
	p.VoteCounts[action].Add(&p.VoteCounts[action], amount)
	p.VoteCounts[VoteCountTotal] = m.state.ring.TotalBallot
	status := p.Policy.Evaluate(&p.VoteCounts, m.state.nonsenseThreshold)
	m.setStatus(p, status)
	if status == StatusApproved || status == StatusRejected {
		if err := m.releaseBond(p); err != nil {
			return nil, err
		}
	}
	if err := m.putProposal(p); err != nil {
		return nil, err
	}
	m.onCommit(func() {
		m.ls.metrics.votes.WithLabelValues(action.String()).Inc()
	})
	return amount.Clone(), nil
}

// topUpVotes carries extra ballot power from an append lock into the
// proposals of the current window the account has already voted on. Only
// the delta is added so nothing is counted twice.
func (m *mutation) topUpVotes(accountID string, delta *uint256.Int) error {
	bucket, err := m.ls.db.GetBucket(m.window, m.txn)
	if err != nil {
		return err
	}
	for _, pid := range bucket.ProposalIDs {
		vote, err := m.getVote(accountID, pid)
		if err != nil {
			return err
		}
		if vote == nil {
			continue
		}
		p, err := m.getProposal(pid)
		if err != nil {
			return err
		}
		accepted, err := m.applyVote(p, vote.Vote, delta)
		if err != nil {
			return err
		}
		if accepted.IsZero() {
			continue
		}
		vote.Amount.Add(&vote.Amount, accepted)
		if err := m.putVote(accountID, vote); err != nil {
			return err
		}
		m.emit(event.VoteEventType, event.VoteEvent{
			Account:    accountID,
			ProposalID: pid,
			Action:     vote.Vote.String(),
			Amount:     *accepted,
			TopUp:      true,
		})
	}
	return nil
}
