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
	"fmt"
	"slices"
	"time"

	"github.com/blinklabs-io/referendum/database"
	"github.com/blinklabs-io/referendum/database/models"
	"github.com/blinklabs-io/referendum/rational"
	"github.com/blinklabs-io/referendum/session"
	"github.com/holiman/uint256"
)

// Metadata summarizes the global ledger state as of now
type Metadata struct {
	Owner                 string
	LockedAsset           string
	Genesis               time.Time
	WindowLength          time.Duration
	DayLength             time.Duration
	Sessions              int
	Launched              bool
	CurrentWindow         uint32
	TotalBallot           uint256.Int
	LockedAmount          uint256.Int
	ProposalCount         uint32
	LockAmountPerProposal uint256.Int
	AccountCount          uint64
	RelativePolicy        VotePolicy
	AbsolutePolicy        VotePolicy
	NonsenseThreshold     rational.Rational
}

// liveWindow returns the window for now, or false before launch
func liveWindow(state *contractState, now time.Time) (uint32, bool) {
	window, err := state.clock.Window(now)
	if err != nil {
		return 0, false
	}
	return window, true
}

func (ls *LedgerState) Metadata(ctx context.Context) (*Metadata, error) {
	var ret *Metadata
	err := ls.view(ctx, "metadata", func(_ *database.Txn, state *contractState, now time.Time) error {
		window, launched := liveWindow(state, now)
		ret = &Metadata{
			Owner:                 state.owner,
			LockedAsset:           state.lockedAsset,
			Genesis:               state.clock.Genesis,
			WindowLength:          state.clock.WindowLength,
			DayLength:             state.clock.DayLength,
			Sessions:              state.ring.Capacity(),
			Launched:              launched,
			CurrentWindow:         window,
			LockedAmount:          state.curLockAmount,
			ProposalCount:         state.nextProposalID,
			LockAmountPerProposal: state.lockAmountPerProposal,
			AccountCount:          state.accountCount,
			RelativePolicy:        state.policies[PolicyRelative],
			AbsolutePolicy:        state.policies[PolicyAbsolute],
			NonsenseThreshold:     state.nonsenseThreshold,
		}
		if launched {
			ret.TotalBallot = *state.ring.LiveTotal(window)
		}
		return nil
	})
	return ret, err
}

// AccountState returns the account with its ballot reduced to the power
// that is live now
func (ls *LedgerState) AccountState(ctx context.Context, accountID string) (*Account, error) {
	var ret *Account
	err := ls.view(ctx, "account_state", func(txn *database.Txn, state *contractState, now time.Time) error {
		rec, err := ls.db.GetAccount(accountID, txn)
		if err != nil {
			if errors.Is(err, models.ErrAccountNotFound) {
				return fmt.Errorf("%w: %s", ErrNotRegistered, accountID)
			}
			return err
		}
		ret = accountFromRecord(accountID, rec)
		window, launched := liveWindow(state, now)
		if !launched {
			ret.BallotAmount.Clear()
			return nil
		}
		ret.BallotAmount = *ret.LiveBallot(window)
		return nil
	})
	return ret, err
}

// Accounts lists the registered account ids in order
func (ls *LedgerState) Accounts(ctx context.Context) ([]string, error) {
	var ret []string
	err := ls.view(ctx, "accounts", func(txn *database.Txn, _ *contractState, _ time.Time) error {
		accounts, err := ls.db.GetAccounts(0, 0, txn)
		if err != nil {
			return err
		}
		ret = make([]string, 0, len(accounts))
		for _, acct := range accounts {
			ret = append(ret, acct.AccountID)
		}
		return nil
	})
	return ret, err
}

// AccountVotes lists the votes an account has cast, by proposal id
func (ls *LedgerState) AccountVotes(ctx context.Context, accountID string) ([]AccountVote, error) {
	var ret []AccountVote
	err := ls.view(ctx, "account_votes", func(txn *database.Txn, _ *contractState, _ time.Time) error {
		if _, err := ls.db.GetAccount(accountID, txn); err != nil {
			if errors.Is(err, models.ErrAccountNotFound) {
				return fmt.Errorf("%w: %s", ErrNotRegistered, accountID)
			}
			return err
		}
		votes, err := ls.db.GetVotesByAccount(accountID, txn)
		if err != nil {
			return err
		}
		ret = make([]AccountVote, 0, len(votes))
		for _, v := range votes {
			ret = append(ret, AccountVote{
				ProposalID: v.ProposalID,
				Vote:       VoteAction(v.Vote),
				Amount:     *v.Amount.Int(),
			})
		}
		return nil
	})
	return ret, err
}

// ProposalState returns the proposal with its status derived for now
func (ls *LedgerState) ProposalState(ctx context.Context, proposalID uint32) (*Proposal, error) {
	var ret *Proposal
	err := ls.view(ctx, "proposal_state", func(txn *database.Txn, state *contractState, now time.Time) error {
		rec, err := ls.db.GetProposal(proposalID, txn)
		if err != nil {
			if errors.Is(err, models.ErrProposalNotFound) {
				return fmt.Errorf("%w: %d", ErrProposalNotFound, proposalID)
			}
			return err
		}
		ret = proposalFromRecord(rec)
		ret.Status = ret.DeriveStatus(state.clock, now)
		return nil
	})
	return ret, err
}

type ProposalFilter struct {
	Proposer  string
	Statuses  []Status
	SessionID *uint32
	Limit     int
	Offset    int
}

// Proposals lists proposals in id order. Statuses are matched against the
// derived status.
func (ls *LedgerState) Proposals(ctx context.Context, filter ProposalFilter) ([]*Proposal, error) {
	var ret []*Proposal
	err := ls.view(ctx, "proposals", func(txn *database.Txn, state *contractState, now time.Time) error {
		query := models.ProposalFilter{
			Proposer:  filter.Proposer,
			SessionID: filter.SessionID,
		}
		// Stored statuses can lag behind time, so pagination happens after
		// derivation when filtering by status
		if len(filter.Statuses) == 0 {
			query.Limit = filter.Limit
			query.Offset = filter.Offset
		}
		rows, err := ls.db.GetProposals(query, txn)
		if err != nil {
			return err
		}
		for _, row := range rows {
			rec, err := ls.db.GetProposal(row.ProposalID, txn)
			if err != nil {
				return err
			}
			p := proposalFromRecord(rec)
			p.Status = p.DeriveStatus(state.clock, now)
			if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, p.Status) {
				continue
			}
			ret = append(ret, p)
		}
		if len(filter.Statuses) > 0 {
			ret = paginate(ret, filter.Limit, filter.Offset)
		}
		return nil
	})
	return ret, err
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// SessionState returns the raw ring slot at a physical index
func (ls *LedgerState) SessionState(ctx context.Context, idx int) (session.Info, error) {
	var ret session.Info
	err := ls.view(ctx, "session_state", func(_ *database.Txn, state *contractState, _ time.Time) error {
		var err error
		ret, err = state.ring.Slot(idx)
		return err
	})
	return ret, err
}

// SessionProposals lists the proposal ids scheduled in a window
func (ls *LedgerState) SessionProposals(ctx context.Context, window uint32) ([]uint32, error) {
	var ret []uint32
	err := ls.view(ctx, "session_proposals", func(txn *database.Txn, _ *contractState, _ time.Time) error {
		bucket, err := ls.db.GetBucket(window, txn)
		if err != nil {
			return err
		}
		ret = bucket.ProposalIDs
		return nil
	})
	return ret, err
}

// TotalLiveBallots returns the ballot power live now
func (ls *LedgerState) TotalLiveBallots(ctx context.Context) (*uint256.Int, error) {
	ret := new(uint256.Int)
	err := ls.view(ctx, "total_live_ballots", func(_ *database.Txn, state *contractState, now time.Time) error {
		if window, launched := liveWindow(state, now); launched {
			ret = state.ring.LiveTotal(window)
		}
		return nil
	})
	return ret, err
}

// TransferInfo is a ticket with its resolution state
type TransferInfo struct {
	Ticket
	Status   TransferStatus
	Error    string
	IssuedAt time.Time
}

// Transfers lists outbound transfers in token order, optionally only those
// with the given status
func (ls *LedgerState) Transfers(ctx context.Context, status *TransferStatus) ([]TransferInfo, error) {
	var ret []TransferInfo
	err := ls.view(ctx, "transfers", func(txn *database.Txn, _ *contractState, _ time.Time) error {
		var filter *uint8
		if status != nil {
			tmp := uint8(*status)
			filter = &tmp
		}
		rows, err := ls.db.GetTransfers(filter, txn)
		if err != nil {
			return err
		}
		ret = make([]TransferInfo, 0, len(rows))
		for _, row := range rows {
			rec, err := ls.db.GetTransfer(row.Token, txn)
			if err != nil {
				return err
			}
			ret = append(ret, TransferInfo{
				Ticket:   ticketFromRecord(rec),
				Status:   TransferStatus(rec.Status),
				Error:    rec.Error,
				IssuedAt: time.Unix(0, rec.IssuedAt),
			})
		}
		return nil
	})
	return ret, err
}

// PendingTransfers returns the tickets that have not been resolved yet
func (ls *LedgerState) PendingTransfers(ctx context.Context) ([]Ticket, error) {
	pending := TransferPending
	infos, err := ls.Transfers(ctx, &pending)
	if err != nil {
		return nil, err
	}
	ret := make([]Ticket, 0, len(infos))
	for _, info := range infos {
		ret = append(ret, info.Ticket)
	}
	return ret, nil
}
