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

package blob

import (
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/referendum/database/plugin"
	"github.com/blinklabs-io/referendum/database/plugin/blob/badger"
	"github.com/blinklabs-io/referendum/database/types"
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultPlugin = "badger"

type BlobStore interface {
	Close() error
	NewTransaction(bool) types.Txn
	Get(types.Txn, []byte) ([]byte, error)
	Set(types.Txn, []byte, []byte) error
	Delete(types.Txn, []byte) error
	// Iterate calls fn for every key with the given prefix in key order
	Iterate(types.Txn, []byte, func(key []byte, val []byte) error) error

	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
}

// New returns the blob store selected by name
func New(
	pluginName string,
	dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (BlobStore, error) {
	if pluginName == "" {
		pluginName = DefaultPlugin
	}
	switch pluginName {
	case "badger":
		return badger.New(
			badger.WithDataDir(dataDir),
			badger.WithLogger(logger),
			badger.WithPromRegistry(promRegistry),
			badger.WithGc(dataDir != ""),
		)
	default:
		return nil, fmt.Errorf(
			"%s plugin '%s' not found",
			plugin.PluginTypeName(plugin.PluginTypeBlob),
			pluginName,
		)
	}
}
