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

package gormstore

import (
	"github.com/blinklabs-io/referendum/database/models"
	"github.com/blinklabs-io/referendum/database/types"
	"gorm.io/gorm/clause"
)

func (s *Store) SetTransfer(transfer *models.Transfer, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status",
			"error",
			"updated_at",
		}),
	}
	return db.Clauses(onConflict).Create(transfer).Error
}

// GetTransfers returns transfers ordered by token. A nil status matches
// every transfer.
func (s *Store) GetTransfers(
	status *uint8,
	txn types.Txn,
) ([]models.Transfer, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	query := db.Order("token ASC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var ret []models.Transfer
	if result := query.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
