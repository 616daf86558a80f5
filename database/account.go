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
	"time"

	"github.com/blinklabs-io/referendum/database/models"
	"github.com/blinklabs-io/referendum/database/types"
)

func (d *Database) GetAccount(
	accountID string,
	txn *Txn,
) (*models.AccountRecord, error) {
	var ret models.AccountRecord
	err := d.getRecord(
		models.RecordKindAccount,
		types.AccountBlobKey(accountID),
		&ret,
		txn,
	)
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil, models.ErrAccountNotFound
		}
		return nil, err
	}
	return &ret, nil
}

// SetAccount writes the account record and its queryable projection
func (d *Database) SetAccount(
	accountID string,
	account *models.AccountRecord,
	txn *Txn,
) error {
	if err := d.setRecord(
		models.RecordKindAccount,
		types.AccountBlobKey(accountID),
		account,
		txn,
	); err != nil {
		return err
	}
	return d.Metadata().SetAccount(
		&models.Account{
			AccountID:          accountID,
			LockingAmount:      account.LockingAmount,
			BallotAmount:       account.BallotAmount,
			UnlockingSessionID: account.UnlockingSessionID,
			UpdatedAt:          time.Now(),
		},
		txn.Metadata(),
	)
}

// DeleteAccount removes the account along with every vote it recorded
func (d *Database) DeleteAccount(accountID string, txn *Txn) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	var voteKeys [][]byte
	err := d.Blob().Iterate(
		txn.Blob(),
		types.VoteBlobKeyPrefixForAccount(accountID),
		func(key []byte, _ []byte) error {
			voteKeys = append(voteKeys, key)
			return nil
		},
	)
	if err != nil {
		return err
	}
	for _, key := range voteKeys {
		if err := d.deleteRecord(key, txn); err != nil {
			return err
		}
	}
	if err := d.deleteRecord(types.AccountBlobKey(accountID), txn); err != nil {
		return err
	}
	if err := d.Metadata().DeleteVotesByAccount(accountID, txn.Metadata()); err != nil {
		return err
	}
	return d.Metadata().DeleteAccount(accountID, txn.Metadata())
}

func (d *Database) GetAccounts(
	limit int,
	offset int,
	txn *Txn,
) ([]models.Account, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.Metadata().GetAccounts(limit, offset, txn.Metadata())
}
