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
	"testing"

	"github.com/blinklabs-io/referendum/database/types"
	"github.com/blinklabs-io/referendum/rational"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeProposal(t *testing.T) {
	rec := ProposalRecord{
		ID:          7,
		Proposer:    "alice",
		LockAmount:  types.NewAmountUint64(10),
		Description: "raise the bond",
		Policy: VotePolicy{
			Kind:   0,
			First:  rational.New(1, 2),
			Second: rational.New(1, 2),
		},
		VoteCounts: [4]types.Amount{
			types.NewAmountUint64(30),
			{},
			{},
			types.NewAmountUint64(60),
		},
		SessionID: 3,
	}
	data, err := Encode(RecordKindProposal, rec)
	require.NoError(t, err)
	var out ProposalRecord
	require.NoError(t, Decode(RecordKindProposal, data, &out))
	assert.Equal(t, rec, out)
}

func TestDecodeRejectsFutureVersion(t *testing.T) {
	body, err := cbor.Marshal(Bucket{Window: 1})
	require.NoError(t, err)
	data, err := cbor.Marshal(envelope{Version: 9, Body: body})
	require.NoError(t, err)
	var out Bucket
	assert.ErrorIs(t, Decode(RecordKindBucket, data, &out), ErrUnknownSchemaVersion)
}

func TestDecodeUpgradeChain(t *testing.T) {
	const kind RecordKind = "test-upgrade"
	type v1 struct {
		Name string `cbor:"0,keyasint"`
	}
	type v3 struct {
		Name  string `cbor:"0,keyasint"`
		Count uint64 `cbor:"1,keyasint"`
		Flag  bool   `cbor:"2,keyasint"`
	}
	RegisterSchema(kind, 1)
	old, err := Encode(kind, v1{Name: "x"})
	require.NoError(t, err)

	RegisterSchema(kind, 3)
	var out v3
	// missing upgrade step
	require.ErrorIs(t, Decode(kind, old, &out), ErrUnknownSchemaVersion)

	RegisterUpgrade(kind, 1, func(raw cbor.RawMessage) (cbor.RawMessage, error) {
		var tmp v1
		if err := cbor.Unmarshal(raw, &tmp); err != nil {
			return nil, err
		}
		return cbor.Marshal(v3{Name: tmp.Name, Count: 1})
	})
	RegisterUpgrade(kind, 2, func(raw cbor.RawMessage) (cbor.RawMessage, error) {
		var tmp v3
		if err := cbor.Unmarshal(raw, &tmp); err != nil {
			return nil, err
		}
		tmp.Flag = true
		return cbor.Marshal(tmp)
	})
	require.NoError(t, Decode(kind, old, &out))
	assert.Equal(t, v3{Name: "x", Count: 1, Flag: true}, out)
}

func TestEncodeUnknownKind(t *testing.T) {
	_, err := Encode(RecordKind("nope"), Bucket{})
	assert.ErrorIs(t, err, ErrUnknownSchemaVersion)
}
