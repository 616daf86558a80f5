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

var ErrAccountNotFound = errors.New("account not found")

// AccountRecord is the authoritative account state in the blob store
type AccountRecord struct {
	LockingAmount      types.Amount `cbor:"0,keyasint"`
	BallotAmount       types.Amount `cbor:"1,keyasint"`
	UnlockingSessionID uint32       `cbor:"2,keyasint"`
}

// Account is the queryable projection of an account
type Account struct {
	ID                 uint         `gorm:"primarykey"`
	AccountID          string       `gorm:"uniqueIndex;size:128;not null"`
	LockingAmount      types.Amount `gorm:"not null"`
	BallotAmount       types.Amount `gorm:"not null"`
	UnlockingSessionID uint32       `gorm:"index;not null"`
	UpdatedAt          time.Time
}

func (Account) TableName() string {
	return "account"
}
