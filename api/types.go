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
	"time"

	"github.com/blinklabs-io/referendum/ledger"
	"github.com/blinklabs-io/referendum/session"
)

// RootResponse is returned by GET /.
type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

type PolicyBody struct {
	Type   string `json:"type"`
	First  string `json:"first"`
	Second string `json:"second"`
}

func policyBody(p ledger.VotePolicy) PolicyBody {
	return PolicyBody{
		Type:   p.Type.String(),
		First:  p.First.String(),
		Second: p.Second.String(),
	}
}

// MetadataResponse is returned by GET /api/v0/metadata.
type MetadataResponse struct {
	Owner                 string     `json:"owner"`
	LockedAsset           string     `json:"locked_asset"`
	Genesis               time.Time  `json:"genesis"`
	WindowLength          string     `json:"window_length"`
	DayLength             string     `json:"day_length"`
	Sessions              int        `json:"sessions"`
	Launched              bool       `json:"launched"`
	CurrentWindow         uint32     `json:"current_window"`
	TotalBallot           string     `json:"total_ballot"`
	LockedAmount          string     `json:"locked_amount"`
	ProposalCount         uint32     `json:"proposal_count"`
	LockAmountPerProposal string     `json:"lock_amount_per_proposal"`
	AccountCount          uint64     `json:"account_count"`
	RelativePolicy        PolicyBody `json:"relative_policy"`
	AbsolutePolicy        PolicyBody `json:"absolute_policy"`
	NonsenseThreshold     string     `json:"nonsense_threshold"`
}

type BallotsResponse struct {
	Total string `json:"total"`
}

type SessionResponse struct {
	Index        int    `json:"index"`
	SessionID    uint32 `json:"session_id"`
	ExpireAmount string `json:"expire_amount"`
}

type AccountResponse struct {
	Account            string `json:"account"`
	LockingAmount      string `json:"locking_amount"`
	BallotAmount       string `json:"ballot_amount"`
	UnlockingSessionID uint32 `json:"unlocking_session_id"`
}

type AccountVoteResponse struct {
	ProposalID uint32 `json:"proposal_id"`
	Vote       string `json:"vote"`
	Amount     string `json:"amount"`
}

type VoteCounts struct {
	Approve  string `json:"approve"`
	Reject   string `json:"reject"`
	Nonsense string `json:"nonsense"`
	Total    string `json:"total"`
}

type ProposalResponse struct {
	ID          uint32     `json:"id"`
	Proposer    string     `json:"proposer"`
	LockAmount  string     `json:"lock_amount"`
	Description string     `json:"description"`
	Kind        string     `json:"kind"`
	Policy      PolicyBody `json:"policy"`
	Status      string     `json:"status"`
	VoteCounts  VoteCounts `json:"vote_counts"`
	SessionID   uint32     `json:"session_id"`
	StartOffset string     `json:"start_offset"`
	Lasts       string     `json:"lasts"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
}

func proposalResponse(p *ledger.Proposal, clock session.Clock) ProposalResponse {
	return ProposalResponse{
		ID:          p.ID,
		Proposer:    p.Proposer,
		LockAmount:  p.LockAmount.Dec(),
		Description: p.Description,
		Kind:        p.Kind.String(),
		Policy:      policyBody(p.Policy),
		Status:      p.Status.String(),
		VoteCounts: VoteCounts{
			Approve:  p.VoteCounts[ledger.VoteApprove].Dec(),
			Reject:   p.VoteCounts[ledger.VoteReject].Dec(),
			Nonsense: p.VoteCounts[ledger.VoteNonsense].Dec(),
			Total:    p.VoteCounts[ledger.VoteCountTotal].Dec(),
		},
		SessionID:   p.SessionID,
		StartOffset: p.StartOffset.String(),
		Lasts:       p.Lasts.String(),
		StartTime:   p.StartTime(clock).UTC(),
		EndTime:     p.EndTime(clock).UTC(),
	}
}

type TicketResponse struct {
	Token   uint64 `json:"token"`
	Kind    string `json:"kind"`
	Account string `json:"account"`
	Amount  string `json:"amount"`
	Memo    string `json:"memo,omitempty"`
}

func ticketResponse(t ledger.Ticket) TicketResponse {
	return TicketResponse{
		Token:   t.Token,
		Kind:    t.Kind.String(),
		Account: t.Account,
		Amount:  t.Amount.Dec(),
		Memo:    t.Memo,
	}
}

type TransferResponse struct {
	TicketResponse
	Status   string    `json:"status"`
	Error    string    `json:"error,omitempty"`
	IssuedAt time.Time `json:"issued_at"`
}

type RegisterRequest struct {
	Account string `json:"account"`
}

type RegisterResponse struct {
	Account string `json:"account"`
	Created bool   `json:"created"`
}

type RemovedResponse struct {
	Removed bool `json:"removed"`
}

type RedeemedResponse struct {
	Redeemed bool `json:"redeemed"`
}

// DepositRequest is posted by the asset subsystem after it moved funds into
// custody. Msg follows the transfer message convention: empty appends to the
// active lock, a decimal starts a new lock of that many windows.
type DepositRequest struct {
	Asset  string `json:"asset"`
	Sender string `json:"sender"`
	Amount string `json:"amount"`
	Msg    string `json:"msg"`
}

type DepositResponse struct {
	Unused string `json:"unused"`
}

type AddProposalRequest struct {
	Proposer    string `json:"proposer"`
	Deposit     string `json:"deposit"`
	Description string `json:"description"`
	PolicyType  string `json:"policy_type,omitempty"`
	SessionID   uint32 `json:"session_id"`
	StartOffset string `json:"start_offset"`
	Lasts       string `json:"lasts"`
}

type AddProposalResponse struct {
	ID uint32 `json:"id"`
}

type VoteRequest struct {
	Account string `json:"account"`
	Action  string `json:"action"`
	Memo    string `json:"memo,omitempty"`
}

type VoteResponse struct {
	Accepted string `json:"accepted"`
}

type CallerRequest struct {
	Caller string `json:"caller"`
}

type ResolveRequest struct {
	// Error is empty when the transfer succeeded
	Error string `json:"error"`
}

type OwnerRequest struct {
	Caller string `json:"caller"`
	Owner  string `json:"owner"`
}

type GenesisRequest struct {
	Caller  string    `json:"caller"`
	Genesis time.Time `json:"genesis"`
}

type BondRequest struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

type NonsenseRequest struct {
	Caller    string `json:"caller"`
	Threshold string `json:"threshold"`
}

type PolicyRequest struct {
	Caller string     `json:"caller"`
	Policy PolicyBody `json:"policy"`
}

type EventResponse struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}
