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
	"time"

	"github.com/blinklabs-io/referendum/database/types"
)

var ErrProposalNotFound = errors.New("proposal not found")

// ProposalRecord is the authoritative proposal state in the blob store
type ProposalRecord struct {
	ID          uint32          `cbor:"0,keyasint"`
	Proposer    string          `cbor:"1,keyasint"`
	LockAmount  types.Amount    `cbor:"2,keyasint"`
	Description string          `cbor:"3,keyasint"`
	Policy      VotePolicy      `cbor:"4,keyasint"`
	Kind        uint8           `cbor:"5,keyasint"`
	Status      uint8           `cbor:"6,keyasint"`
	VoteCounts  [4]types.Amount `cbor:"7,keyasint"`
	SessionID   uint32          `cbor:"8,keyasint"`
	StartOffset int64           `cbor:"9,keyasint"` // nanoseconds
	Lasts       int64           `cbor:"10,keyasint"` // nanoseconds
}

// Proposal is the queryable projection of a proposal
type Proposal struct {
	ID          uint         `gorm:"primarykey"`
	ProposalID  uint32       `gorm:"uniqueIndex;not null"`
	Proposer    string       `gorm:"index;size:128;not null"`
	Description string       `gorm:"not null"`
	Kind        uint8        `gorm:"not null"`
	PolicyKind  uint8        `gorm:"not null"` // Relative=0, Absolute=1
	Status      uint8        `gorm:"index;not null"`
	SessionID   uint32       `gorm:"index;not null"`
	LockAmount  types.Amount `gorm:"not null"`
	Approve     types.Amount `gorm:"not null"`
	Reject      types.Amount `gorm:"not null"`
	Nonsense    types.Amount `gorm:"not null"`
	Total       types.Amount `gorm:"not null"`
	StartTime   time.Time    `gorm:"not null"`
	EndTime     time.Time    `gorm:"index;not null"`
	UpdatedAt   time.Time
}

func (Proposal) TableName() string {
	return "proposal"
}

// ProposalFilter narrows a proposal listing. Zero values match everything.
type ProposalFilter struct {
	Proposer  string
	Statuses  []uint8
	SessionID *uint32
	Limit     int
	Offset    int
}
