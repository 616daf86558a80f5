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

package api

import (
	"context"
	"time"

	"github.com/blinklabs-io/referendum/ledger"
	"github.com/blinklabs-io/referendum/rational"
	"github.com/blinklabs-io/referendum/session"
	"github.com/holiman/uint256"
)

// Ledger is the interface the API server uses to query and drive the
// ledger. *ledger.LedgerState implements it.
type Ledger interface {
	Metadata(ctx context.Context) (*ledger.Metadata, error)
	TotalLiveBallots(ctx context.Context) (*uint256.Int, error)
	SessionState(ctx context.Context, idx int) (session.Info, error)
	SessionProposals(ctx context.Context, window uint32) ([]uint32, error)

	Register(ctx context.Context, accountID string) (bool, error)
	Unregister(ctx context.Context, accountID string) (bool, error)
	AccountState(ctx context.Context, accountID string) (*ledger.Account, error)
	AccountVotes(ctx context.Context, accountID string) ([]ledger.AccountVote, error)
	Withdraw(ctx context.Context, accountID string) (*ledger.Ticket, error)
	OnAssetTransfer(
		ctx context.Context,
		assetID string,
		sender string,
		amount *uint256.Int,
		msg string,
	) (*uint256.Int, error)

	Proposals(ctx context.Context, filter ledger.ProposalFilter) ([]*ledger.Proposal, error)
	AddProposal(ctx context.Context, req ledger.AddProposalRequest) (uint32, error)
	ProposalState(ctx context.Context, proposalID uint32) (*ledger.Proposal, error)
	ActProposal(
		ctx context.Context,
		caller string,
		proposalID uint32,
		action ledger.VoteAction,
		memo string,
	) (*uint256.Int, error)
	RemoveProposal(ctx context.Context, caller string, proposalID uint32) (bool, error)
	RedeemExpired(ctx context.Context, caller string, proposalID uint32) (bool, error)

	Transfers(ctx context.Context, status *ledger.TransferStatus) ([]ledger.TransferInfo, error)
	ResolveTransfer(ctx context.Context, token uint64, outcome error) error

	SetOwner(ctx context.Context, caller string, owner string) error
	ModifyGenesis(ctx context.Context, caller string, genesis time.Time) error
	ModifyEndorsementAmount(ctx context.Context, caller string, amount *uint256.Int) error
	ModifyNonsenseThreshold(ctx context.Context, caller string, threshold rational.Rational) error
	ModifyVotePolicy(ctx context.Context, caller string, policy ledger.VotePolicy) error
}

var _ Ledger = (*ledger.LedgerState)(nil)
