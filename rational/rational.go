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

// Package rational implements the threshold fractions used by vote policies.
package rational

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

var (
	ErrInvalid     = errors.New("invalid rational")
	ErrParseFailed = errors.New("failed to parse rational")
)

// Rational is a fraction N/D used as a pass threshold. A valid rational has a
// nonzero numerator and a denominator no smaller than the numerator, so the
// value lies in (0, 1]. The text form is "N/D".
type Rational struct {
	Numerator   uint32 `cbor:"0,keyasint"`
	Denominator uint32 `cbor:"1,keyasint"`
}

func New(numerator, denominator uint32) Rational {
	return Rational{Numerator: numerator, Denominator: denominator}
}

func (r Rational) Valid() bool {
	return r.Numerator > 0 && r.Denominator >= r.Numerator
}

// Validate returns ErrInvalid wrapped with the offending value when the
// rational is not usable as a threshold
func (r Rational) Validate() error {
	if !r.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalid, r)
	}
	return nil
}

// Pass reports whether num/denom reaches the threshold, that is
// num*D >= N*denom. The products are computed in 256 bits so they cannot
// overflow for 128-bit operands.
func (r Rational) Pass(num, denom *uint256.Int) bool {
	lhs := new(uint256.Int).Mul(num, uint256.NewInt(uint64(r.Denominator)))
	rhs := new(uint256.Int).Mul(uint256.NewInt(uint64(r.Numerator)), denom)
	return !lhs.Lt(rhs)
}

// PassUint64 is a convenience wrapper around Pass
func (r Rational) PassUint64(num, denom uint64) bool {
	return r.Pass(uint256.NewInt(num), uint256.NewInt(denom))
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Numerator, r.Denominator)
}

// Parse reads a rational in "N/D" form. The result is not validated.
func Parse(s string) (Rational, error) {
	numStr, denomStr, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Rational{}, fmt.Errorf("%w: %q", ErrParseFailed, s)
	}
	num, err := strconv.ParseUint(strings.TrimSpace(numStr), 10, 32)
	if err != nil {
		return Rational{}, fmt.Errorf("%w: %q: %w", ErrParseFailed, s, err)
	}
	denom, err := strconv.ParseUint(strings.TrimSpace(denomStr), 10, 32)
	if err != nil {
		return Rational{}, fmt.Errorf("%w: %q: %w", ErrParseFailed, s, err)
	}
	return Rational{Numerator: uint32(num), Denominator: uint32(denom)}, nil
}

func (r Rational) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Rational) UnmarshalText(data []byte) error {
	tmp, err := Parse(string(data))
	if err != nil {
		return err
	}
	*r = tmp
	return nil
}
