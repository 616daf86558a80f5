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

package metadata

import (
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/referendum/database/models"
	"github.com/blinklabs-io/referendum/database/plugin"
	"github.com/blinklabs-io/referendum/database/plugin/metadata/mysql"
	"github.com/blinklabs-io/referendum/database/plugin/metadata/postgres"
	"github.com/blinklabs-io/referendum/database/plugin/metadata/sqlite"
	"github.com/blinklabs-io/referendum/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const DefaultPlugin = "sqlite"

type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	Transaction() types.Txn

	// Accounts
	SetAccount(*models.Account, types.Txn) error
	DeleteAccount(string, types.Txn) error
	GetAccounts(int, int, types.Txn) ([]models.Account, error)

	// Proposals
	SetProposal(*models.Proposal, types.Txn) error
	DeleteProposal(uint32, types.Txn) error
	GetProposals(models.ProposalFilter, types.Txn) ([]models.Proposal, error)

	// Votes
	SetVote(*models.Vote, types.Txn) error
	GetVotesByAccount(string, types.Txn) ([]models.Vote, error)
	GetVotesByProposal(uint32, types.Txn) ([]models.Vote, error)
	DeleteVotesByAccount(string, types.Txn) error

	// Transfers
	SetTransfer(*models.Transfer, types.Txn) error
	GetTransfers(*uint8, types.Txn) ([]models.Transfer, error)
}

// New returns the metadata store selected by name. The dsn is used by
// networked backends and ignored by sqlite, which stores its file under
// dataDir (or in memory when dataDir is empty).
func New(
	pluginName string,
	dataDir string,
	dsn string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (MetadataStore, error) {
	if pluginName == "" {
		pluginName = DefaultPlugin
	}
	switch pluginName {
	case "sqlite":
		return sqlite.New(dataDir, logger, promRegistry)
	case "postgres":
		return postgres.New(dsn, logger, promRegistry)
	case "mysql":
		return mysql.New(dsn, logger, promRegistry)
	default:
		return nil, fmt.Errorf(
			"%s plugin '%s' not found",
			plugin.PluginTypeName(plugin.PluginTypeMetadata),
			pluginName,
		)
	}
}
