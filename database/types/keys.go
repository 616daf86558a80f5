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
	"encoding/binary"
	"slices"
)

const (
	StateBlobKey            = "state"
	AccountBlobKeyPrefix    = "acct/"
	VoteBlobKeyPrefix       = "vote/"
	ProposalBlobKeyPrefix   = "prop/"
	BucketBlobKeyPrefix     = "bucket/"
	TransferBlobKeyPrefix   = "xfer/"
	CommitTimestampBlobKey  = "metadata_commit_timestamp"
	accountKeySeparatorByte = 0x00
)

func Uint32ToBytes(input uint32) []byte {
	ret := make([]byte, 4)
	binary.BigEndian.PutUint32(ret, input)
	return ret
}

func Uint64ToBytes(input uint64) []byte {
	ret := make([]byte, 8)
	binary.BigEndian.PutUint64(ret, input)
	return ret
}

func AccountBlobKey(account string) []byte {
	return slices.Concat([]byte(AccountBlobKeyPrefix), []byte(account))
}

// VoteBlobKeyPrefixForAccount returns the prefix shared by every vote of an account
func VoteBlobKeyPrefixForAccount(account string) []byte {
	return slices.Concat(
		[]byte(VoteBlobKeyPrefix),
		[]byte(account),
		[]byte{accountKeySeparatorByte},
	)
}

func VoteBlobKey(account string, proposalID uint32) []byte {
	return slices.Concat(
		VoteBlobKeyPrefixForAccount(account),
		Uint32ToBytes(proposalID),
	)
}

func ProposalBlobKey(proposalID uint32) []byte {
	return slices.Concat([]byte(ProposalBlobKeyPrefix), Uint32ToBytes(proposalID))
}

func BucketBlobKey(window uint32) []byte {
	return slices.Concat([]byte(BucketBlobKeyPrefix), Uint32ToBytes(window))
}

func TransferBlobKey(token uint64) []byte {
	return slices.Concat([]byte(TransferBlobKeyPrefix), Uint64ToBytes(token))
}
