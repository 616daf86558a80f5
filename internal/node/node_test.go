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

package node

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/blinklabs-io/referendum"
	"github.com/blinklabs-io/referendum/internal/config"
	"github.com/blinklabs-io/referendum/ledger"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DatabasePath:    t.TempDir(),
		BlobPlugin:      config.DefaultBlobPlugin,
		MetadataPlugin:  config.DefaultMetadataPlugin,
		BindAddr:        "127.0.0.1",
		ShutdownTimeout: config.DefaultShutdownTimeout,
		Asset:           "gov-token",
		Custody:         "referendum",
		Owner:           "owner",
		Genesis:         "2026-01-01T00:00:00Z",
		WindowLength:    config.DefaultWindowLength,
		DayLength:       config.DefaultDayLength,
		Sessions:        4,
	}
}

func TestNodeOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.ApiPort = 0
	opts, err := nodeOptions(cfg, nil, prometheus.NewRegistry())
	require.NoError(t, err)
	n, err := referendum.New(referendum.NewConfig(opts...))
	require.NoError(t, err)
	require.NoError(t, n.Stop())

	cfg.WindowLength = "monthly"
	_, err = nodeOptions(cfg, nil, nil)
	assert.Error(t, err)
}

func TestInspect(t *testing.T) {
	cfg := testConfig(t)
	genesis, err := cfg.GenesisTime()
	require.NoError(t, err)
	now := genesis.Add(time.Hour)
	ls, err := ledger.NewLedgerState(ledger.LedgerStateConfig{
		DataDir:     cfg.DatabasePath,
		LockedAsset: cfg.Asset,
		Owner:       cfg.Owner,
		Genesis:     genesis,
		Sessions:    cfg.Sessions,
		NowFunc:     func() time.Time { return now },
	})
	require.NoError(t, err)
	ctx := context.Background()
	_, err = ls.Register(ctx, "alice")
	require.NoError(t, err)
	_, err = ls.Lock(ctx, "alice", uint256.NewInt(10), 2)
	require.NoError(t, err)
	_, err = ls.AddProposal(ctx, ledger.AddProposalRequest{
		Proposer:    "alice",
		Deposit:     uint256.NewInt(150),
		Kind:        ledger.ProposalKindVote,
		SessionID:   1,
		StartOffset: time.Hour,
		Lasts:       time.Hour,
	})
	require.NoError(t, err)
	require.NoError(t, ls.Close())

	var buf bytes.Buffer
	require.NoError(t, Inspect(ctx, cfg, nil, &buf))
	out := buf.String()
	assert.Contains(t, out, "owner")
	assert.Contains(t, out, "gov-token")
	assert.Contains(t, out, "relative(1/2, 1/2)")
	assert.Regexp(t, `Locked amount:\s+10\n`, out)
	assert.Regexp(t, `Proposals:\s+1\n`, out)
	assert.Regexp(t, `\n3\s+3\s+0\n`, out)
	// The deposit above the default bond of 100 is refunded
	assert.Contains(t, out, "refund")
	assert.Regexp(t, `\s50\s`, out)
}
