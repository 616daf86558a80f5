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
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// Status is the lifecycle position of a proposal
type Status uint8

const (
	StatusWarmUp Status = iota
	StatusInProgress
	StatusApproved
	StatusRejected
	StatusNonsense
	StatusExpired
)

var statusNames = map[Status]string{
	StatusWarmUp:     "warmup",
	StatusInProgress: "inprogress",
	StatusApproved:   "approved",
	StatusRejected:   "rejected",
	StatusNonsense:   "nonsense",
	StatusExpired:    "expired",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Terminal reports whether the status can no longer change
func (s Status) Terminal() bool {
	return s >= StatusApproved
}

func ParseStatus(s string) (Status, error) {
	for status, name := range statusNames {
		if strings.EqualFold(s, name) {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown proposal status %q", s)
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(data []byte) error {
	tmp, err := ParseStatus(string(data))
	if err != nil {
		return err
	}
	*s = tmp
	return nil
}

// VoteAction is the decision recorded by a vote. It also indexes the
// proposal vote counts.
type VoteAction uint8

const (
	VoteApprove VoteAction = iota
	VoteReject
	VoteNonsense
)

// VoteCountTotal indexes the total ballot snapshot in the proposal vote counts
const VoteCountTotal = 3

func (a VoteAction) String() string {
	switch a {
	case VoteApprove:
		return "approve"
	case VoteReject:
		return "reject"
	case VoteNonsense:
		return "nonsense"
	default:
		return fmt.Sprintf("VoteAction(%d)", uint8(a))
	}
}

func (a VoteAction) Valid() bool {
	return a <= VoteNonsense
}

// ParseVoteAction accepts approve, reject, nonsense and its alias remove
func ParseVoteAction(s string) (VoteAction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approve":
		return VoteApprove, nil
	case "reject":
		return VoteReject, nil
	case "nonsense", "remove":
		return VoteNonsense, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
}

func (a VoteAction) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *VoteAction) UnmarshalText(data []byte) error {
	tmp, err := ParseVoteAction(string(data))
	if err != nil {
		return err
	}
	*a = tmp
	return nil
}

// ProposalKind is what a proposal asks for. Only signalling votes exist.
type ProposalKind uint8

const ProposalKindVote ProposalKind = 0

func (k ProposalKind) String() string {
	if k == ProposalKindVote {
		return "vote"
	}
	return fmt.Sprintf("ProposalKind(%d)", uint8(k))
}

type TransferKind uint8

const (
	TransferWithdraw TransferKind = iota
	TransferBond
	TransferRefund
)

func (k TransferKind) String() string {
	switch k {
	case TransferWithdraw:
		return "withdraw"
	case TransferBond:
		return "bond"
	case TransferRefund:
		return "refund"
	default:
		return fmt.Sprintf("TransferKind(%d)", uint8(k))
	}
}

func (k TransferKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

type TransferStatus uint8

const (
	TransferPending TransferStatus = iota
	TransferSucceeded
	TransferFailed
)

func (s TransferStatus) String() string {
	switch s {
	case TransferPending:
		return "pending"
	case TransferSucceeded:
		return "succeeded"
	case TransferFailed:
		return "failed"
	default:
		return fmt.Sprintf("TransferStatus(%d)", uint8(s))
	}
}

func (s TransferStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func ParseTransferStatus(s string) (TransferStatus, error) {
	for _, status := range []TransferStatus{TransferPending, TransferSucceeded, TransferFailed} {
		if strings.EqualFold(s, status.String()) {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown transfer status %q", s)
}

// Ticket identifies an outbound transfer issued by a ledger operation. The
// transfer stays pending until ResolveTransfer is called with its Token.
type Ticket struct {
	Token   uint64
	Kind    TransferKind
	Account string
	Amount  uint256.Int
	Memo    string
}
