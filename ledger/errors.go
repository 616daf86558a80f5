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

	"github.com/blinklabs-io/referendum/rational"
	"github.com/blinklabs-io/referendum/session"
)

var (
	ErrNotLaunched     = session.ErrNotLaunched
	ErrAlreadyLaunched = errors.New("already launched")
	ErrIllegalGenesis  = errors.New("genesis must be in the future")
	ErrNotOwner        = errors.New("caller is not the owner")
	ErrInvalidConfig   = errors.New("invalid ledger configuration")
	ErrInternal        = errors.New("internal ledger error")

	ErrNotRegistered   = errors.New("account not registered")
	ErrAccountLocked   = errors.New("account still has locked funds")
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrIllegalAsset    = errors.New("illegal asset")
	ErrIllegalMessage  = errors.New("illegal transfer message")
	ErrInvalidAccount  = errors.New("invalid account id")

	ErrInvalidLockWindows = errors.New("invalid number of lock windows")
	ErrNoActiveLock       = errors.New("no active lock")
	ErrActiveLockExists   = errors.New("active lock exists")
	ErrNothingToWithdraw  = errors.New("nothing to withdraw")

	ErrProposalNotFound    = errors.New("proposal not found")
	ErrNotProposer         = errors.New("caller is not the proposer")
	ErrInsufficientBond    = errors.New("insufficient proposal bond")
	ErrSessionInPast       = errors.New("session is in the past")
	ErrSessionOutOfRange   = errors.New("session too far in the future")
	ErrStartInPast         = errors.New("proposal start is in the past")
	ErrProposalTooLong     = errors.New("proposal does not fit in its session")
	ErrInvalidProposalKind = errors.New("invalid proposal kind")
	ErrInvalidVotePolicy   = errors.New("invalid vote policy")
	ErrInvalidRational     = rational.ErrInvalid
	ErrInvalidAction       = errors.New("invalid vote action")

	ErrNotVotable   = errors.New("proposal is not in progress")
	ErrNoBallots    = errors.New("no live ballots")
	ErrAlreadyVoted = errors.New("already voted")

	ErrUnknownTransfer = errors.New("unknown or resolved transfer")
)
