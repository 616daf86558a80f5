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
)

var ErrVoteNotFound = errors.New("vote not found")

// VoteRecord is the authoritative record of a single account vote
type VoteRecord struct {
	_      struct{} `cbor:",toarray"`
	Vote   uint8
	Amount types.Amount
}

// Vote is the queryable projection of an account vote
type Vote struct {
	ID         uint         `gorm:"primarykey"`
	AccountID  string       `gorm:"uniqueIndex:idx_vote_account_proposal,priority:1;size:128;not null"`
	ProposalID uint32       `gorm:"uniqueIndex:idx_vote_account_proposal,priority:2;index;not null"`
	Vote       uint8        `gorm:"not null"` // Approve=0, Reject=1, Nonsense=2
	Amount     types.Amount `gorm:"not null"`
	AddedAt    int64        `gorm:"not null"` // unix milliseconds
}

func (Vote) TableName() string {
	return "vote"
}
