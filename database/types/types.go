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

package types

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/holiman/uint256"
)

var (
	ErrBlobKeyNotFound      = errors.New("blob key not found")
	ErrTxnWrongType         = errors.New("invalid transaction type")
	ErrNilTxn               = errors.New("nil transaction")
	ErrNoStoreAvailable     = errors.New("no store available")
	ErrBlobStoreUnavailable = errors.New("blob store unavailable")
	ErrReadOnlyTxn          = errors.New("write in read-only transaction")
	ErrAmountTooLarge       = errors.New("amount exceeds 256 bits")
)

// Txn is the common handle for a store transaction
type Txn interface {
	Commit() error
	Rollback() error
}

// Amount is a 256-bit unsigned balance. It encodes to CBOR as a minimal
// big-endian byte string and to SQL as a decimal string.
type Amount struct {
	v uint256.Int
}

func NewAmount(v *uint256.Int) Amount {
	var ret Amount
	if v != nil {
		ret.v.Set(v)
	}
	return ret
}

func NewAmountUint64(v uint64) Amount {
	var ret Amount
	ret.v.SetUint64(v)
	return ret
}

// Int returns a copy of the amount
func (a Amount) Int() *uint256.Int {
	return new(uint256.Int).Set(&a.v)
}

func (a Amount) IsZero() bool {
	return a.v.IsZero()
}

func (a Amount) String() string {
	return a.v.Dec()
}

func (a Amount) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(a.v.Bytes())
}

func (a *Amount) UnmarshalCBOR(data []byte) error {
	var tmp []byte
	if err := cbor.Unmarshal(data, &tmp); err != nil {
		return err
	}
	if len(tmp) > 32 {
		return ErrAmountTooLarge
	}
	a.v.SetBytes(tmp)
	return nil
}

func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.v.Dec()), nil
}

func (a *Amount) UnmarshalText(data []byte) error {
	tmp, err := uint256.FromDecimal(string(data))
	if err != nil {
		return fmt.Errorf("failed to parse amount %q: %w", string(data), err)
	}
	a.v.Set(tmp)
	return nil
}

func (Amount) GormDataType() string {
	return "string"
}

func (a Amount) Value() (driver.Value, error) {
	return a.v.Dec(), nil
}

func (a *Amount) Scan(val any) error {
	switch v := val.(type) {
	case string:
		return a.UnmarshalText([]byte(v))
	case []byte:
		return a.UnmarshalText(v)
	case nil:
		a.v.Clear()
		return nil
	default:
		return fmt.Errorf(
			"value was not expected type, wanted string, got %T",
			val,
		)
	}
}
