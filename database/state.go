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

	"github.com/blinklabs-io/referendum/database/models"
	"github.com/blinklabs-io/referendum/database/types"
)

// getRecord loads and decodes a versioned record. It returns
// types.ErrBlobKeyNotFound when the key does not exist.
func (d *Database) getRecord(
	kind models.RecordKind,
	key []byte,
	dst any,
	txn *Txn,
) error {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	data, err := d.Blob().Get(txn.Blob(), key)
	if err != nil {
		return err
	}
	return models.Decode(kind, data, dst)
}

func (d *Database) setRecord(
	kind models.RecordKind,
	key []byte,
	val any,
	txn *Txn,
) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	data, err := models.Encode(kind, val)
	if err != nil {
		return err
	}
	return d.Blob().Set(txn.Blob(), key, data)
}

func (d *Database) deleteRecord(key []byte, txn *Txn) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	return d.Blob().Delete(txn.Blob(), key)
}

// GetState returns the singleton engine state
func (d *Database) GetState(txn *Txn) (*models.State, error) {
	var ret models.State
	err := d.getRecord(
		models.RecordKindState,
		[]byte(types.StateBlobKey),
		&ret,
		txn,
	)
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil, models.ErrStateNotFound
		}
		return nil, err
	}
	return &ret, nil
}

func (d *Database) SetState(state *models.State, txn *Txn) error {
	return d.setRecord(
		models.RecordKindState,
		[]byte(types.StateBlobKey),
		state,
		txn,
	)
}
