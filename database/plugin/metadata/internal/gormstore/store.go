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

// Package gormstore holds the query layer shared by every gorm-backed
// metadata store.
package gormstore

import (
	"errors"
	"io"
	"log/slog"

	"github.com/blinklabs-io/referendum/database/models"
	"github.com/blinklabs-io/referendum/database/types"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"
)

type gormTxn struct {
	db       *gorm.DB
	finished bool
}

func (t *gormTxn) Commit() error {
	if t.finished {
		return nil
	}
	if result := t.db.Commit(); result.Error != nil {
		return result.Error
	}
	t.finished = true
	return nil
}

func (t *gormTxn) Rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if result := t.db.Rollback(); result.Error != nil {
		return result.Error
	}
	return nil
}

type CommitTimestamp struct {
	ID        uint `gorm:"primarykey"`
	Timestamp int64
}

func (CommitTimestamp) TableName() string {
	return "commit_timestamp"
}

// Store implements the metadata queries on top of an open gorm.DB
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// New wraps db, enables tracing and migrates the schema
func New(db *gorm.DB, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	s := &Store{
		db:     db,
		logger: logger,
	}
	// Configure tracing for GORM
	if err := s.db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}
	// Create table schemas
	if err := s.db.AutoMigrate(&CommitTimestamp{}); err != nil {
		return nil, err
	}
	for _, model := range models.MigrateModels {
		s.logger.Debug(
			"creating table",
			"model", model,
			"component", "database",
		)
		if err := s.db.AutoMigrate(model); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Transaction() types.Txn {
	return &gormTxn{db: s.db.Begin()}
}

func (s *Store) Close() error {
	// get DB handle from gorm.DB
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// resolveDB returns the gorm handle for txn, or the base handle for a nil txn
func (s *Store) resolveDB(txn types.Txn) (*gorm.DB, error) {
	if txn == nil {
		return s.db, nil
	}
	tmpTxn, ok := txn.(*gormTxn)
	if !ok {
		return nil, types.ErrTxnWrongType
	}
	if tmpTxn.finished {
		return nil, errors.New("transaction already finished")
	}
	return tmpTxn.db, nil
}

func (s *Store) GetCommitTimestamp() (int64, error) {
	var tmp CommitTimestamp
	result := s.db.Where("id = ?", 1).Limit(1).Find(&tmp)
	if result.Error != nil {
		return 0, result.Error
	}
	return tmp.Timestamp, nil
}

func (s *Store) SetCommitTimestamp(timestamp int64, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	tmp := CommitTimestamp{ID: 1, Timestamp: timestamp}
	return db.Save(&tmp).Error
}
