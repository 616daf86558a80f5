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

func (d *Database) GetTransfer(
	token uint64,
	txn *Txn,
) (*models.TransferRecord, error) {
	var ret models.TransferRecord
	err := d.getRecord(
		models.RecordKindTransfer,
		types.TransferBlobKey(token),
		&ret,
		txn,
	)
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil, models.ErrTransferNotFound
		}
		return nil, err
	}
	return &ret, nil
}

// SetTransfer writes a transfer record and its queryable projection
func (d *Database) SetTransfer(transfer *models.TransferRecord, txn *Txn) error {
	if err := d.setRecord(
		models.RecordKindTransfer,
		types.TransferBlobKey(transfer.Token),
		transfer,
		txn,
	); err != nil {
		return err
	}
	return d.Metadata().SetTransfer(
		&models.Transfer{
			Token:     transfer.Token,
			Kind:      transfer.Kind,
			AccountID: transfer.Account,
			Amount:    transfer.Amount,
			Status:    transfer.Status,
			Memo:      transfer.Memo,
			Error:     transfer.Error,
			IssuedAt:  time.Unix(0, transfer.IssuedAt),
			UpdatedAt: time.Now(),
		},
		txn.Metadata(),
	)
}

// GetTransfers lists transfers, optionally restricted to a status
func (d *Database) GetTransfers(
	status *uint8,
	txn *Txn,
) ([]models.Transfer, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.Metadata().GetTransfers(status, txn.Metadata())
}
