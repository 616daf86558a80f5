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

package referendum

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/referendum/ledger"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultAssetID         = "gov-token"
	DefaultCustodyAccount  = "referendum"
	DefaultShutdownTimeout = 30 * time.Second
)

type Config struct {
	promRegistry          prometheus.Registerer
	logger                *slog.Logger
	nowFunc               func() time.Time
	dataDir               string
	blobPlugin            string
	metadataPlugin        string
	metadataDsn           string
	assetID               string
	custodyAccount        string
	owner                 string
	genesis               time.Time
	windowLength          time.Duration
	dayLength             time.Duration
	sessions              int
	lockAmountPerProposal *uint256.Int
	transferWorkers       int
	// API listen address (empty = disabled)
	apiListenAddress string
	eventHistory     int
	tracing          bool
	tracingStdout    bool
	shutdownTimeout  time.Duration
}

func (n *Node) configValidate() error {
	if n.config.assetID == "" {
		return errors.New("asset id must not be empty")
	}
	if n.config.custodyAccount == "" {
		return errors.New("custody account must not be empty")
	}
	if n.config.transferWorkers < 0 {
		return errors.New("transfer workers must not be negative")
	}
	if n.config.windowLength < 0 || n.config.dayLength < 0 {
		return errors.New("window and day lengths must not be negative")
	}
	return nil
}

func (c *Config) ledgerConfig() ledger.LedgerStateConfig {
	return ledger.LedgerStateConfig{
		Logger:                c.logger,
		PromRegistry:          c.promRegistry,
		DataDir:               c.dataDir,
		BlobPlugin:            c.blobPlugin,
		MetadataPlugin:        c.metadataPlugin,
		MetadataDsn:           c.metadataDsn,
		NowFunc:               c.nowFunc,
		TransferWorkers:       c.transferWorkers,
		Owner:                 c.owner,
		Genesis:               c.genesis,
		WindowLength:          c.windowLength,
		DayLength:             c.dayLength,
		Sessions:              c.sessions,
		LockAmountPerProposal: c.lockAmountPerProposal,
	}
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new referendum config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:          slog.New(slog.NewJSONHandler(io.Discard, nil)),
		assetID:         DefaultAssetID,
		custodyAccount:  DefaultCustodyAccount,
		shutdownTimeout: DefaultShutdownTimeout,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithMetadataDsn specifies the connection string for the postgres and mysql metadata plugins
func WithMetadataDsn(dsn string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataDsn = dsn
	}
}

// WithAsset specifies the governance token id and the account that holds locked funds
func WithAsset(assetID string, custodyAccount string) ConfigOptionFunc {
	return func(c *Config) {
		c.assetID = assetID
		c.custodyAccount = custodyAccount
	}
}

// WithOwner specifies the initial ledger owner. Only used when the ledger is first created
func WithOwner(owner string) ConfigOptionFunc {
	return func(c *Config) {
		c.owner = owner
	}
}

// WithGenesis specifies the launch time. A zero time launches a new ledger immediately
func WithGenesis(genesis time.Time) ConfigOptionFunc {
	return func(c *Config) {
		c.genesis = genesis
	}
}

// WithSessionTiming specifies the window length, day length and ring capacity for a new ledger
func WithSessionTiming(
	windowLength time.Duration,
	dayLength time.Duration,
	sessions int,
) ConfigOptionFunc {
	return func(c *Config) {
		c.windowLength = windowLength
		c.dayLength = dayLength
		c.sessions = sessions
	}
}

// WithLockAmountPerProposal specifies the initial proposal bond
func WithLockAmountPerProposal(amount *uint256.Int) ConfigOptionFunc {
	return func(c *Config) {
		c.lockAmountPerProposal = amount
	}
}

// WithTransferWorkers specifies the number of transfer dispatcher workers. Zero disables automatic dispatch
func WithTransferWorkers(workers int) ConfigOptionFunc {
	return func(c *Config) {
		c.transferWorkers = workers
	}
}

// WithApiListenAddress specifies the REST API listen address. The API is disabled when empty
func WithApiListenAddress(address string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = address
	}
}

// WithEventHistory specifies how many ledger events the API keeps for its event feed
func WithEventHistory(count int) ConfigOptionFunc {
	return func(c *Config) {
		c.eventHistory = count
	}
}

// WithNowFunc overrides the clock
func WithNowFunc(nowFunc func() time.Time) ConfigOptionFunc {
	return func(c *Config) {
		c.nowFunc = nowFunc
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
