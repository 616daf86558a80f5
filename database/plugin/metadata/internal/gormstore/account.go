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

func (s *Store) SetAccount(account *models.Account, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"locking_amount",
			"ballot_amount",
			"unlocking_session_id",
			"updated_at",
		}),
	}
	return db.Clauses(onConflict).Create(account).Error
}

func (s *Store) DeleteAccount(accountID string, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Where("account_id = ?", accountID).Delete(&models.Account{}).Error
}

func (s *Store) GetAccounts(
	limit int,
	offset int,
	txn types.Txn,
) ([]models.Account, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Account
	query := db.Order("account_id ASC").Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if result := query.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
