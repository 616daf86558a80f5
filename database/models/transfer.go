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

var ErrTransferNotFound = errors.New("transfer not found")

// TransferRecord is the authoritative record of an outbound asset transfer
type TransferRecord struct {
	Token    uint64       `cbor:"0,keyasint"`
	Kind     uint8        `cbor:"1,keyasint"`
	Account  string       `cbor:"2,keyasint"`
	Amount   types.Amount `cbor:"3,keyasint"`
	Status   uint8        `cbor:"4,keyasint"`
	IssuedAt int64        `cbor:"5,keyasint"` // unix nanoseconds
	Memo     string       `cbor:"6,keyasint"`
	Error    string       `cbor:"7,keyasint,omitempty"`
}

// Transfer is the queryable projection of an outbound transfer
type Transfer struct {
	ID        uint         `gorm:"primarykey"`
	Token     uint64       `gorm:"uniqueIndex;not null"`
	Kind      uint8        `gorm:"not null"` // Withdraw=0, Bond=1, Refund=2
	AccountID string       `gorm:"index;size:128;not null"`
	Amount    types.Amount `gorm:"not null"`
	Status    uint8        `gorm:"index;not null"` // Pending=0, Succeeded=1, Failed=2
	Memo      string
	Error     string
	IssuedAt  time.Time `gorm:"not null"`
	UpdatedAt time.Time
}

func (Transfer) TableName() string {
	return "transfer"
}
