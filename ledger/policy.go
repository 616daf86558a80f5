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

	"github.com/blinklabs-io/referendum/rational"
	"github.com/holiman/uint256"
)

type PolicyType uint8

const (
	PolicyRelative PolicyType = iota
	PolicyAbsolute
)

func (t PolicyType) String() string {
	switch t {
	case PolicyRelative:
		return "relative"
	case PolicyAbsolute:
		return "absolute"
	default:
		return fmt.Sprintf("PolicyType(%d)", uint8(t))
	}
}

func ParsePolicyType(s string) (PolicyType, error) {
	switch s {
	case "relative":
		return PolicyRelative, nil
	case "absolute":
		return PolicyAbsolute, nil
	default:
		return 0, fmt.Errorf("%w: unknown policy type %q", ErrInvalidVotePolicy, s)
	}
}

// VotePolicy decides a proposal from its tallies. A relative policy holds
// (quorum, threshold) and measures each side against the ballots cast. An
// absolute policy holds (pass, fail) and measures against all live ballots.
type VotePolicy struct {
	Type   PolicyType
	First  rational.Rational
	Second rational.Rational
}

func RelativePolicy(quorum, threshold rational.Rational) VotePolicy {
	return VotePolicy{Type: PolicyRelative, First: quorum, Second: threshold}
}

func AbsolutePolicy(pass, fail rational.Rational) VotePolicy {
	return VotePolicy{Type: PolicyAbsolute, First: pass, Second: fail}
}

var (
	DefaultRelativePolicy = RelativePolicy(
		rational.New(1, 2),
		rational.New(1, 2),
	)
	DefaultAbsolutePolicy = AbsolutePolicy(
		rational.New(1, 2),
		rational.New(1, 2),
	)
	DefaultNonsenseThreshold = rational.New(1, 2)
)

func (p VotePolicy) Validate() error {
	if p.Type > PolicyAbsolute {
		return fmt.Errorf("%w: type %d", ErrInvalidVotePolicy, p.Type)
	}
	if !p.First.Valid() || !p.Second.Valid() {
		return fmt.Errorf(
			"%w: %s %s/%s: %w",
			ErrInvalidVotePolicy,
			p.Type,
			p.First,
			p.Second,
			ErrInvalidRational,
		)
	}
	return nil
}

func (p VotePolicy) String() string {
	return fmt.Sprintf("%s(%s, %s)", p.Type, p.First, p.Second)
}

// Evaluate returns the status implied by the tallies: Nonsense when the
// nonsense threshold passes, then Rejected, then Approved. InProgress means
// no decision yet.
func (p VotePolicy) Evaluate(
	counts *[4]uint256.Int,
	nonsenseThreshold rational.Rational,
) Status {
	approve := &counts[VoteApprove]
	reject := &counts[VoteReject]
	nonsense := &counts[VoteNonsense]
	total := &counts[VoteCountTotal]
	if nonsenseThreshold.Pass(nonsense, total) {
		return StatusNonsense
	}
	switch p.Type {
	case PolicyRelative:
		voted := new(uint256.Int).Add(approve, reject)
		voted.Add(voted, nonsense)
		if !p.First.Pass(voted, total) {
			return StatusInProgress
		}
		if p.Second.Pass(reject, voted) {
			return StatusRejected
		}
		if p.Second.Pass(approve, voted) {
			return StatusApproved
		}
	case PolicyAbsolute:
		if p.Second.Pass(reject, total) {
			return StatusRejected
		}
		if p.First.Pass(approve, total) {
			return StatusApproved
		}
	}
	return StatusInProgress
}
