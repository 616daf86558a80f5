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
	"sync"
	"time"

	"github.com/blinklabs-io/referendum/database/types"
)

var ErrTxnPanic = errors.New("panic in transaction")

// Txn spans the blob store and the metadata index. The blob side is
// authoritative and always commits first.
type Txn struct {
	db       *Database
	blob     types.Txn
	metadata types.Txn
	mu       sync.Mutex
	done     bool
	update   bool
}

func NewTxn(db *Database, readWrite bool) *Txn {
	t := &Txn{db: db, update: readWrite}
	if bs := db.Blob(); bs != nil {
		t.blob = bs.NewTransaction(readWrite)
	}
	if ms := db.Metadata(); ms != nil {
		t.metadata = ms.Transaction()
	}
	return t
}

func (t *Txn) DB() *Database {
	return t.db
}

// Metadata returns the underlying metadata transaction handle
func (t *Txn) Metadata() types.Txn {
	return t.metadata
}

// Blob returns the blob transaction handle
func (t *Txn) Blob() types.Txn {
	return t.blob
}

// Do runs fn inside the transaction and commits when it returns nil. An
// error or a panic from fn rolls both stores back.
func (t *Txn) Do(fn func(*Txn) error) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err = t.abort(fmt.Errorf("%w: %v", ErrTxnPanic, r))
	}()
	if err := fn(t); err != nil {
		return t.abort(err)
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

// abort rolls back and reports cause, along with any rollback failure
func (t *Txn) abort(cause error) error {
	if err := t.Rollback(); err != nil {
		return fmt.Errorf("rollback failed: %w: original error: %w", err, cause)
	}
	return cause
}

func (t *Txn) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	if !t.update {
		// Nothing to write, just free the resources
		return t.rollbackLocked()
	}
	if t.blob == nil && t.metadata == nil {
		t.done = true
		return types.ErrNoStoreAvailable
	}
	defer func() {
		t.done = true
	}()
	if t.blob != nil && t.metadata != nil {
		if err := t.db.updateCommitTimestamp(t, time.Now().UnixMilli()); err != nil {
			_ = t.blob.Rollback()
			_ = t.metadata.Rollback()
			return fmt.Errorf("failed to update commit timestamp: %w", err)
		}
	}
	if t.blob != nil {
		if err := t.blob.Commit(); err != nil {
			if t.metadata != nil {
				_ = t.metadata.Rollback()
			}
			return fmt.Errorf("blob commit failed: %w", err)
		}
	}
	if t.metadata == nil {
		return nil
	}
	if err := t.metadata.Commit(); err != nil {
		// The stores now disagree on the commit timestamp, which is
		// reported as a CommitTimestampError on the next open
		t.db.logger.Error(
			"metadata commit failed after blob commit",
			"error", err,
			"component", "database",
		)
		_ = t.metadata.Rollback()
		return fmt.Errorf("metadata commit failed after blob commit: %w", err)
	}
	return nil
}

func (t *Txn) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rollbackLocked()
}

func (t *Txn) rollbackLocked() error {
	if t.done {
		return nil
	}
	t.done = true
	var err error
	if t.blob != nil {
		if blobErr := t.blob.Rollback(); blobErr != nil {
			err = errors.Join(err, fmt.Errorf("blob rollback: %w", blobErr))
		}
	}
	if t.metadata != nil {
		if metaErr := t.metadata.Rollback(); metaErr != nil {
			err = errors.Join(err, fmt.Errorf("metadata rollback: %w", metaErr))
		}
	}
	return err
}

// Release discards the transaction if it is still open. Failures are only
// logged, so it can be deferred.
func (t *Txn) Release() {
	if err := t.Rollback(); err != nil {
		t.db.logger.Debug(
			"transaction release failed",
			"error", err,
			"read_write", t.update,
			"component", "database",
		)
	}
}
