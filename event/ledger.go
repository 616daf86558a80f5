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

package event

import "github.com/holiman/uint256"

const (
	SessionAdvancedEventType EventType = "ledger.session"
	LockEventType            EventType = "ledger.lock"
	WithdrawEventType        EventType = "ledger.withdraw"
	VoteEventType            EventType = "ledger.vote"
	ProposalEventType        EventType = "ledger.proposal"
	TransferEventType        EventType = "ledger.transfer"
)

// SessionAdvancedEvent is emitted when the session ring moves into a new window
type SessionAdvancedEvent struct {
	Window      uint32
	Opened      []uint32
	TotalBallot uint256.Int
}

// LockEvent is emitted after a new or append lock is applied
type LockEvent struct {
	Account            string
	Amount             uint256.Int
	Windows            uint32
	Ballot             uint256.Int
	UnlockingSessionID uint32
	Append             bool
}

type WithdrawEvent struct {
	Account string
	Amount  uint256.Int
	Token   uint64
}

// VoteEvent is emitted for a direct vote and for the retroactive top-up that
// an append lock applies to proposals already voted on
type VoteEvent struct {
	Account    string
	ProposalID uint32
	Action     string
	Amount     uint256.Int
	TopUp      bool
}

// ProposalEvent reports a proposal status change. Previous is empty for a
// newly added proposal.
type ProposalEvent struct {
	ProposalID uint32
	Proposer   string
	Previous   string
	Status     string
}

type TransferEvent struct {
	Token   uint64
	Kind    string
	Account string
	Amount  uint256.Int
	Status  string
	Error   string
}
