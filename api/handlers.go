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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/referendum/internal/version"
	"github.com/blinklabs-io/referendum/ledger"
	"github.com/blinklabs-io/referendum/rational"
	"github.com/blinklabs-io/referendum/session"
	"github.com/holiman/uint256"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

// writeJSON writes a JSON response with the given status code.
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(
	w http.ResponseWriter,
	status int,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// statusForError maps ledger errors onto HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, ErrInvalidPaginationParameters),
		errors.Is(err, rational.ErrParseFailed):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotRegistered),
		errors.Is(err, ledger.ErrProposalNotFound),
		errors.Is(err, ledger.ErrUnknownTransfer),
		errors.Is(err, session.ErrSlotOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrNotOwner),
		errors.Is(err, ledger.ErrNotProposer):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrActiveLockExists),
		errors.Is(err, ledger.ErrNoActiveLock),
		errors.Is(err, ledger.ErrAccountLocked),
		errors.Is(err, ledger.ErrNothingToWithdraw),
		errors.Is(err, ledger.ErrAlreadyVoted),
		errors.Is(err, ledger.ErrNotVotable),
		errors.Is(err, ledger.ErrNoBallots),
		errors.Is(err, ledger.ErrAlreadyLaunched):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrNotLaunched):
		return http.StatusServiceUnavailable
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidAccount),
		errors.Is(err, ledger.ErrIllegalAsset),
		errors.Is(err, ledger.ErrIllegalMessage),
		errors.Is(err, ledger.ErrIllegalGenesis),
		errors.Is(err, ledger.ErrInvalidLockWindows),
		errors.Is(err, ledger.ErrInsufficientBond),
		errors.Is(err, ledger.ErrSessionInPast),
		errors.Is(err, ledger.ErrSessionOutOfRange),
		errors.Is(err, ledger.ErrStartInPast),
		errors.Is(err, ledger.ErrProposalTooLong),
		errors.Is(err, ledger.ErrInvalidProposalKind),
		errors.Is(err, ledger.ErrInvalidVotePolicy),
		errors.Is(err, ledger.ErrInvalidRational),
		errors.Is(err, ledger.ErrInvalidAction):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeFailure reports err to the client. Internal errors are logged and
// their detail is withheld.
func (s *Server) writeFailure(
	w http.ResponseWriter,
	r *http.Request,
	err error,
) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(
			"request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decode body: %w", errBadRequest, err)
	}
	return nil
}

func parseAmount(name string, value string) (*uint256.Int, error) {
	ret, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q: %w", errBadRequest, name, value, err)
	}
	return ret, nil
}

func parseDuration(name string, value string) (time.Duration, error) {
	ret, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %w", errBadRequest, name, value, err)
	}
	return ret, nil
}

func parseUint(name string, value string, bits int) (uint64, error) {
	ret, err := strconv.ParseUint(value, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", errBadRequest, name, value)
	}
	return ret, nil
}

func pathProposalID(r *http.Request) (uint32, error) {
	id, err := parseUint("proposal id", r.PathValue("id"), 32)
	return uint32(id), err // #nosec G115
}

func parsePolicy(body PolicyBody) (ledger.VotePolicy, error) {
	policyType, err := ledger.ParsePolicyType(body.Type)
	if err != nil {
		return ledger.VotePolicy{}, err
	}
	first, err := rational.Parse(body.First)
	if err != nil {
		return ledger.VotePolicy{}, fmt.Errorf("%w: %w", ledger.ErrInvalidVotePolicy, err)
	}
	second, err := rational.Parse(body.Second)
	if err != nil {
		return ledger.VotePolicy{}, fmt.Errorf("%w: %w", ledger.ErrInvalidVotePolicy, err)
	}
	return ledger.VotePolicy{Type: policyType, First: first, Second: second}, nil
}

func (s *Server) clock(ctx context.Context) (session.Clock, error) {
	meta, err := s.ledger.Metadata(ctx)
	if err != nil {
		return session.Clock{}, err
	}
	return session.Clock{
		Genesis:      meta.Genesis,
		WindowLength: meta.WindowLength,
		DayLength:    meta.DayLength,
	}, nil
}

// handleRoot handles GET / and returns API metadata.
func (s *Server) handleRoot(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, RootResponse{
		Name:    "referendum",
		Version: version.GetVersionString(),
	})
}

func (s *Server) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, HealthResponse{IsHealthy: true})
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	meta, err := s.ledger.Metadata(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MetadataResponse{
		Owner:                 meta.Owner,
		LockedAsset:           meta.LockedAsset,
		Genesis:               meta.Genesis.UTC(),
		WindowLength:          meta.WindowLength.String(),
		DayLength:             meta.DayLength.String(),
		Sessions:              meta.Sessions,
		Launched:              meta.Launched,
		CurrentWindow:         meta.CurrentWindow,
		TotalBallot:           meta.TotalBallot.Dec(),
		LockedAmount:          meta.LockedAmount.Dec(),
		ProposalCount:         meta.ProposalCount,
		LockAmountPerProposal: meta.LockAmountPerProposal.Dec(),
		AccountCount:          meta.AccountCount,
		RelativePolicy:        policyBody(meta.RelativePolicy),
		AbsolutePolicy:        policyBody(meta.AbsolutePolicy),
		NonsenseThreshold:     meta.NonsenseThreshold.String(),
	})
}

func (s *Server) handleBallots(w http.ResponseWriter, r *http.Request) {
	total, err := s.ledger.TotalLiveBallots(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BallotsResponse{Total: total.Dec()})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(r.PathValue("idx"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session index")
		return
	}
	info, err := s.ledger.SessionState(r.Context(), idx)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{
		Index:        idx,
		SessionID:    info.SessionID,
		ExpireAmount: info.ExpireAmount.Dec(),
	})
}

func (s *Server) handleWindowProposals(w http.ResponseWriter, r *http.Request) {
	window, err := parseUint("window", r.PathValue("window"), 32)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	ids, err := s.ledger.SessionProposals(r.Context(), uint32(window)) // #nosec G115
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if ids == nil {
		ids = []uint32{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	created, err := s.ledger.Register(r.Context(), req.Account)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, RegisterResponse{Account: req.Account, Created: created})
}

func (s *Server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	removed, err := s.ledger.Unregister(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RemovedResponse{Removed: removed})
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := s.ledger.AccountState(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AccountResponse{
		Account:            acct.ID,
		LockingAmount:      acct.LockingAmount.Dec(),
		BallotAmount:       acct.BallotAmount.Dec(),
		UnlockingSessionID: acct.UnlockingSessionID,
	})
}

func (s *Server) handleAccountVotes(w http.ResponseWriter, r *http.Request) {
	votes, err := s.ledger.AccountVotes(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	ret := make([]AccountVoteResponse, 0, len(votes))
	for _, v := range votes {
		ret = append(ret, AccountVoteResponse{
			ProposalID: v.ProposalID,
			Vote:       v.Vote.String(),
			Amount:     v.Amount.Dec(),
		})
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	ticket, err := s.ledger.Withdraw(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ticketResponse(*ticket))
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	unused, err := s.ledger.OnAssetTransfer(
		r.Context(),
		req.Asset,
		req.Sender,
		amount,
		req.Msg,
	)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DepositResponse{Unused: unused.Dec()})
}

func (s *Server) handleProposals(w http.ResponseWriter, r *http.Request) {
	params, err := ParsePagination(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	query := r.URL.Query()
	filter := ledger.ProposalFilter{Proposer: query.Get("proposer")}
	if statuses := query.Get("status"); statuses != "" {
		for name := range strings.SplitSeq(statuses, ",") {
			status, err := ledger.ParseStatus(strings.TrimSpace(name))
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	if sessionParam := query.Get("session"); sessionParam != "" {
		sessionID, err := parseUint("session", sessionParam, 32)
		if err != nil {
			s.writeFailure(w, r, err)
			return
		}
		tmp := uint32(sessionID) // #nosec G115
		filter.SessionID = &tmp
	}
	proposals, err := s.ledger.Proposals(r.Context(), filter)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	clock, err := s.clock(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	page := Apply(proposals, params)
	ret := make([]ProposalResponse, 0, len(page))
	for _, p := range page {
		ret = append(ret, proposalResponse(p, clock))
	}
	SetPaginationHeaders(w, len(proposals), params)
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) handleAddProposal(w http.ResponseWriter, r *http.Request) {
	var body AddProposalRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	req, err := body.toLedger()
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	id, err := s.ledger.AddProposal(r.Context(), req)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, AddProposalResponse{ID: id})
}

func (body AddProposalRequest) toLedger() (ledger.AddProposalRequest, error) {
	req := ledger.AddProposalRequest{
		Proposer:    body.Proposer,
		Description: body.Description,
		Kind:        ledger.ProposalKindVote,
		SessionID:   body.SessionID,
	}
	var err error
	if req.Deposit, err = parseAmount("deposit", body.Deposit); err != nil {
		return req, err
	}
	if req.StartOffset, err = parseDuration("start_offset", body.StartOffset); err != nil {
		return req, err
	}
	if req.Lasts, err = parseDuration("lasts", body.Lasts); err != nil {
		return req, err
	}
	if body.PolicyType != "" {
		if req.PolicyType, err = ledger.ParsePolicyType(body.PolicyType); err != nil {
			return req, err
		}
	}
	return req, nil
}

func (s *Server) handleProposal(w http.ResponseWriter, r *http.Request) {
	id, err := pathProposalID(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	p, err := s.ledger.ProposalState(r.Context(), id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	clock, err := s.clock(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, proposalResponse(p, clock))
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	id, err := pathProposalID(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	var req VoteRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	action, err := ledger.ParseVoteAction(req.Action)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	accepted, err := s.ledger.ActProposal(r.Context(), req.Account, id, action, req.Memo)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, VoteResponse{Accepted: accepted.Dec()})
}

func (s *Server) handleRemoveProposal(w http.ResponseWriter, r *http.Request) {
	id, err := pathProposalID(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	var req CallerRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	removed, err := s.ledger.RemoveProposal(r.Context(), req.Caller, id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RemovedResponse{Removed: removed})
}

func (s *Server) handleRedeemProposal(w http.ResponseWriter, r *http.Request) {
	id, err := pathProposalID(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	var req CallerRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	redeemed, err := s.ledger.RedeemExpired(r.Context(), req.Caller, id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RedeemedResponse{Redeemed: redeemed})
}

func (s *Server) handleTransfers(w http.ResponseWriter, r *http.Request) {
	params, err := ParsePagination(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	var status *ledger.TransferStatus
	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		tmp, err := ledger.ParseTransferStatus(statusParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		status = &tmp
	}
	transfers, err := s.ledger.Transfers(r.Context(), status)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	page := Apply(transfers, params)
	ret := make([]TransferResponse, 0, len(page))
	for _, t := range page {
		ret = append(ret, TransferResponse{
			TicketResponse: ticketResponse(t.Ticket),
			Status:         t.Status.String(),
			Error:          t.Error,
			IssuedAt:       t.IssuedAt.UTC(),
		})
	}
	SetPaginationHeaders(w, len(transfers), params)
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) handleResolveTransfer(w http.ResponseWriter, r *http.Request) {
	token, err := parseUint("token", r.PathValue("token"), 64)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	var req ResolveRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	var outcome error
	if req.Error != "" {
		outcome = errors.New(req.Error)
	}
	if err := s.ledger.ResolveTransfer(r.Context(), token, outcome); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetOwner(w http.ResponseWriter, r *http.Request) {
	var req OwnerRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.finishAdmin(w, r, s.ledger.SetOwner(r.Context(), req.Caller, req.Owner))
}

func (s *Server) handleSetGenesis(w http.ResponseWriter, r *http.Request) {
	var req GenesisRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.finishAdmin(w, r, s.ledger.ModifyGenesis(r.Context(), req.Caller, req.Genesis))
}

func (s *Server) handleSetBond(w http.ResponseWriter, r *http.Request) {
	var req BondRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.finishAdmin(w, r, s.ledger.ModifyEndorsementAmount(r.Context(), req.Caller, amount))
}

func (s *Server) handleSetNonsense(w http.ResponseWriter, r *http.Request) {
	var req NonsenseRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	threshold, err := rational.Parse(req.Threshold)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.finishAdmin(w, r, s.ledger.ModifyNonsenseThreshold(r.Context(), req.Caller, threshold))
}

func (s *Server) handleSetPolicy(w http.ResponseWriter, r *http.Request) {
	var req PolicyRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	policy, err := parsePolicy(req.Policy)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.finishAdmin(w, r, s.ledger.ModifyVotePolicy(r.Context(), req.Caller, policy))
}

// finishAdmin answers an owner operation with the updated metadata
func (s *Server) finishAdmin(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.handleMetadata(w, r)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusNotFound, "event feed is not enabled")
		return
	}
	var limit int
	if countParam := r.URL.Query().Get("count"); countParam != "" {
		tmp, err := strconv.Atoi(countParam)
		if err != nil || tmp < 0 {
			writeError(w, http.StatusBadRequest, "invalid count")
			return
		}
		limit = tmp
	}
	writeJSON(w, http.StatusOK, s.events.recent(limit))
}
