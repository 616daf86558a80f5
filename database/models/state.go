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

package models

import (
	"errors"

	"github.com/blinklabs-io/referendum/database/types"
	"github.com/blinklabs-io/referendum/rational"
)

var ErrStateNotFound = errors.New("contract state not found")

// State is the singleton record holding global engine state
type State struct {
	Owner                 string            `cbor:"0,keyasint"`
	LockedAsset           string            `cbor:"1,keyasint"`
	Genesis               int64             `cbor:"2,keyasint"` // unix nanoseconds
	WindowLength          int64             `cbor:"3,keyasint"` // nanoseconds
	DayLength             int64             `cbor:"4,keyasint"` // nanoseconds
	Ring                  Ring              `cbor:"5,keyasint"`
	CurLockAmount         types.Amount      `cbor:"6,keyasint"`
	LastProposalID        uint32            `cbor:"7,keyasint"`
	LockAmountPerProposal types.Amount      `cbor:"8,keyasint"`
	VotePolicies          []VotePolicy      `cbor:"9,keyasint"`
	NonsenseThreshold     rational.Rational `cbor:"10,keyasint"`
	AccountCount          uint64            `cbor:"11,keyasint"`
	LastTransferToken     uint64            `cbor:"12,keyasint"`
}

type Ring struct {
	Slots       []RingSlot   `cbor:"0,keyasint"`
	Head        uint32       `cbor:"1,keyasint"`
	Initialized bool         `cbor:"2,keyasint"`
	TotalBallot types.Amount `cbor:"3,keyasint"`
}

type RingSlot struct {
	_            struct{} `cbor:",toarray"`
	SessionID    uint32
	ExpireAmount types.Amount
}

// VotePolicy is a tagged policy. Kind 0 is relative (quorum, threshold) and
// kind 1 is absolute (pass, fail).
type VotePolicy struct {
	_      struct{} `cbor:",toarray"`
	Kind   uint8
	First  rational.Rational
	Second rational.Rational
}
