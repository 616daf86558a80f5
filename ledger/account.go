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
	"github.com/holiman/uint256"
)

// Account is the voting position of a registered account. The ballot counts
// only while the current window is at most UnlockingSessionID.
type Account struct {
	ID                 string
	LockingAmount      uint256.Int
	BallotAmount       uint256.Int
	UnlockingSessionID uint32
}

// LiveBallot returns the voting power the account holds in window
func (a *Account) LiveBallot(window uint32) *uint256.Int {
	if window > a.UnlockingSessionID {
		return new(uint256.Int)
	}
	return a.BallotAmount.Clone()
}

// AccountVote is the weight an account committed to a proposal. Presence of
// the record means the account already voted.
type AccountVote struct {
	ProposalID uint32
	Vote       VoteAction
	Amount     uint256.Int
}
