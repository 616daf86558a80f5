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

package database

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/referendum/database/types"
)

// CommitTimestampError reports that the blob store and the metadata index
// last committed at different times, so the index may be stale
type CommitTimestampError struct {
	MetadataTimestamp int64
	BlobTimestamp     int64
}

func (e CommitTimestampError) Error() string {
	return fmt.Sprintf(
		"commit timestamp mismatch: metadata %d, blob %d",
		e.MetadataTimestamp,
		e.BlobTimestamp,
	)
}

// IndexBehind reports whether the blob store holds commits the metadata
// index never saw
func (e CommitTimestampError) IndexBehind() bool {
	return e.BlobTimestamp > e.MetadataTimestamp
}

func (d *Database) checkCommitTimestamp() error {
	metaTs, err := d.Metadata().GetCommitTimestamp()
	if err != nil {
		return fmt.Errorf("read metadata commit timestamp: %w", err)
	}
	// Fresh index
	if metaTs <= 0 {
		return nil
	}
	blobTs, err := d.Blob().GetCommitTimestamp()
	if err != nil && !errors.Is(err, types.ErrBlobKeyNotFound) {
		return fmt.Errorf("read blob commit timestamp: %w", err)
	}
	if blobTs == metaTs {
		return nil
	}
	return CommitTimestampError{
		MetadataTimestamp: metaTs,
		BlobTimestamp:     blobTs,
	}
}

// updateCommitTimestamp stamps both sides of txn with the same value
func (d *Database) updateCommitTimestamp(txn *Txn, timestamp int64) error {
	if err := d.Metadata().SetCommitTimestamp(timestamp, txn.Metadata()); err != nil {
		return fmt.Errorf("metadata: %w", err)
	}
	if err := d.Blob().SetCommitTimestamp(timestamp, txn.Blob()); err != nil {
		return fmt.Errorf("blob: %w", err)
	}
	return nil
}
