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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobalConfig() {
	globalConfig = defaultConfig()
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "referendum.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0o644))
	return tmpFile
}

func TestLoadDefaults(t *testing.T) {
	resetGlobalConfig()
	t.Setenv("HOME", t.TempDir())
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
	window, day, shutdown := cfg.Durations()
	assert.Equal(t, 30*24*time.Hour, window)
	assert.Equal(t, 24*time.Hour, day)
	assert.Equal(t, 30*time.Second, shutdown)
	genesis, err := cfg.GenesisTime()
	require.NoError(t, err)
	assert.True(t, genesis.IsZero())
	amount, err := cfg.LockAmount()
	require.NoError(t, err)
	assert.Nil(t, amount)
}

func TestLoadFlatFile(t *testing.T) {
	resetGlobalConfig()
	tmpFile := writeConfig(t, `
databasePath: "/var/lib/referendum"
apiPort: 9000
owner: "council"
genesis: "2026-01-01T00:00:00Z"
sessions: 12
lockAmountPerProposal: "500"
transferWorkers: 0
`)
	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	expected := defaultConfig()
	expected.DatabasePath = "/var/lib/referendum"
	expected.ApiPort = 9000
	expected.Owner = "council"
	expected.Genesis = "2026-01-01T00:00:00Z"
	expected.Sessions = 12
	expected.LockAmountPerProposal = "500"
	expected.TransferWorkers = 0
	assert.Equal(t, expected, cfg)
	genesis, err := cfg.GenesisTime()
	require.NoError(t, err)
	assert.True(
		t,
		genesis.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
	)
	amount, err := cfg.LockAmount()
	require.NoError(t, err)
	assert.Equal(t, "500", amount.Dec())
}

func TestLoadSections(t *testing.T) {
	resetGlobalConfig()
	tmpFile := writeConfig(t, `
config:
  owner: "council"
  tracing: true
database:
  metadata: "postgres"
  dsn: "host=localhost dbname=referendum"
`)
	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, "council", cfg.Owner)
	assert.True(t, cfg.Tracing)
	assert.Equal(t, DefaultBlobPlugin, cfg.BlobPlugin)
	assert.Equal(t, "postgres", cfg.MetadataPlugin)
	assert.Equal(t, "host=localhost dbname=referendum", cfg.MetadataDsn)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	resetGlobalConfig()
	tmpFile := writeConfig(t, `
owner: "council"
apiPort: 9000
`)
	t.Setenv("REFERENDUM_OWNER", "treasury")
	t.Setenv("REFERENDUM_API_PORT", "9100")
	t.Setenv("REFERENDUM_TRANSFER_WORKERS", "4")
	t.Setenv("REFERENDUM_DATABASE_METADATA_PLUGIN", "mysql")
	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, "treasury", cfg.Owner)
	assert.Equal(t, uint(9100), cfg.ApiPort)
	assert.Equal(t, 4, cfg.TransferWorkers)
	assert.Equal(t, "mysql", cfg.MetadataPlugin)
}

func TestLoadInvalid(t *testing.T) {
	testDefs := []struct {
		name    string
		content string
	}{
		{name: "unknown blob plugin", content: `blobPlugin: "leveldb"`},
		{name: "unknown metadata plugin", content: `metadataPlugin: "oracle"`},
		{name: "window length", content: `windowLength: "a month"`},
		{name: "genesis", content: `genesis: "yesterday"`},
		{name: "bond", content: `lockAmountPerProposal: "five"`},
		{name: "negative sessions", content: `sessions: -1`},
		{name: "malformed yaml", content: "owner: [unterminated"},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			resetGlobalConfig()
			_, err := LoadConfig(writeConfig(t, testDef.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadPluginList(t *testing.T) {
	resetGlobalConfig()
	_, err := LoadConfig(writeConfig(t, `blobPlugin: "list"`))
	assert.ErrorIs(t, err, ErrPluginListRequested)
}

func TestLoadMissingFile(t *testing.T) {
	resetGlobalConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	cfg := defaultConfig()
	ctx := WithContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}
