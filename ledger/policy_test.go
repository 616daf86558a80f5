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
	"testing"

	"github.com/blinklabs-io/referendum/rational"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counts(approve, reject, nonsense, total uint64) *[4]uint256.Int {
	var ret [4]uint256.Int
	ret[VoteApprove].SetUint64(approve)
	ret[VoteReject].SetUint64(reject)
	ret[VoteNonsense].SetUint64(nonsense)
	ret[VoteCountTotal].SetUint64(total)
	return &ret
}

func TestVotePolicyEvaluate(t *testing.T) {
	half := rational.New(1, 2)
	testCases := []struct {
		name   string
		policy VotePolicy
		counts *[4]uint256.Int
		want   Status
	}{
		{"relative below quorum", DefaultRelativePolicy, counts(40, 0, 0, 100), StatusInProgress},
		{"relative quorum approve", DefaultRelativePolicy, counts(50, 0, 0, 100), StatusApproved},
		{"relative quorum reject", DefaultRelativePolicy, counts(20, 30, 0, 100), StatusRejected},
		{"relative tie rejects", DefaultRelativePolicy, counts(30, 30, 0, 100), StatusRejected},
		{"relative split", RelativePolicy(half, rational.New(2, 3)), counts(30, 20, 10, 100), StatusInProgress},
		{"absolute approve", DefaultAbsolutePolicy, counts(50, 10, 0, 100), StatusApproved},
		{"absolute reject", DefaultAbsolutePolicy, counts(10, 50, 0, 100), StatusRejected},
		{"absolute pending", DefaultAbsolutePolicy, counts(49, 49, 0, 100), StatusInProgress},
		{"nonsense wins", DefaultAbsolutePolicy, counts(0, 0, 50, 100), StatusNonsense},
		{"nonsense below threshold", DefaultRelativePolicy, counts(10, 0, 40, 100), StatusInProgress},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.policy.Evaluate(tc.counts, half))
		})
	}
}

func TestVotePolicyValidate(t *testing.T) {
	require.NoError(t, DefaultRelativePolicy.Validate())
	require.NoError(t, DefaultAbsolutePolicy.Validate())
	err := RelativePolicy(rational.New(0, 1), rational.New(1, 2)).Validate()
	require.ErrorIs(t, err, ErrInvalidVotePolicy)
	require.ErrorIs(t, err, ErrInvalidRational)
	err = VotePolicy{Type: PolicyType(3), First: rational.New(1, 2), Second: rational.New(1, 2)}.Validate()
	require.ErrorIs(t, err, ErrInvalidVotePolicy)
	assert.Equal(t, "absolute(1/2, 1/2)", DefaultAbsolutePolicy.String())
}

func TestParseHelpers(t *testing.T) {
	status, err := ParseStatus("InProgress")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, status)
	_, err = ParseStatus("pending")
	require.Error(t, err)
	assert.True(t, StatusExpired.Terminal())
	assert.False(t, StatusInProgress.Terminal())

	action, err := ParseVoteAction(" Remove ")
	require.NoError(t, err)
	assert.Equal(t, VoteNonsense, action)
	_, err = ParseVoteAction("abstain")
	require.ErrorIs(t, err, ErrInvalidAction)

	policyType, err := ParsePolicyType("relative")
	require.NoError(t, err)
	assert.Equal(t, PolicyRelative, policyType)
	_, err = ParsePolicyType("majority")
	require.Error(t, err)
}
