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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/referendum/database/plugin"
	_ "github.com/blinklabs-io/referendum/database/plugin/blob"
	_ "github.com/blinklabs-io/referendum/database/plugin/metadata"
	"github.com/holiman/uint256"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "referendum.config"

const (
	DefaultShutdownTimeout = "30s"
	DefaultBlobPlugin      = "badger"
	DefaultMetadataPlugin  = "sqlite"
	DefaultWindowLength    = "720h"
	DefaultDayLength       = "24h"
	DefaultSessions        = 24
	DefaultTransferWorkers = 2
)

// ErrPluginListRequested is returned when the user asks for the plugin list
// instead of a plugin name
var ErrPluginListRequested = errors.New("plugin list requested")

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type tempConfig struct {
	Config   yaml.Node       `yaml:"config,omitempty"`
	Database *databaseConfig `yaml:"database,omitempty"`
}

type databaseConfig struct {
	Blob     string `yaml:"blob,omitempty"`
	Metadata string `yaml:"metadata,omitempty"`
	Dsn      string `yaml:"dsn,omitempty"`
}

type Config struct {
	DatabasePath    string `yaml:"databasePath"    split_words:"true"`
	BlobPlugin      string `yaml:"blobPlugin"      envconfig:"DATABASE_BLOB_PLUGIN"`
	MetadataPlugin  string `yaml:"metadataPlugin"  envconfig:"DATABASE_METADATA_PLUGIN"`
	MetadataDsn     string `yaml:"metadataDsn"     envconfig:"DATABASE_METADATA_DSN"`
	BindAddr        string `yaml:"bindAddr"        split_words:"true"`
	ApiPort         uint   `yaml:"apiPort"         split_words:"true"`
	MetricsPort     uint   `yaml:"metricsPort"     split_words:"true"`
	ShutdownTimeout string `yaml:"shutdownTimeout" split_words:"true"`
	// Governance token served by the built-in asset ledger
	Asset   string `yaml:"asset"`
	Custody string `yaml:"custody"`
	// Values below only apply when the ledger is first created
	Owner                 string `yaml:"owner"`
	Genesis               string `yaml:"genesis"`
	WindowLength          string `yaml:"windowLength"          split_words:"true"`
	DayLength             string `yaml:"dayLength"             split_words:"true"`
	Sessions              int    `yaml:"sessions"`
	LockAmountPerProposal string `yaml:"lockAmountPerProposal" split_words:"true"`
	// Transfer dispatcher pool size (0 = manual dispatch only)
	TransferWorkers int  `yaml:"transferWorkers" split_words:"true"`
	EventHistory    int  `yaml:"eventHistory"    split_words:"true"`
	Tracing         bool `yaml:"tracing"`
	TracingStdout   bool `yaml:"tracingStdout"   split_words:"true"`
}

var globalConfig = defaultConfig()

func defaultConfig() *Config {
	return &Config{
		DatabasePath:    ".referendum",
		BlobPlugin:      DefaultBlobPlugin,
		MetadataPlugin:  DefaultMetadataPlugin,
		BindAddr:        "0.0.0.0",
		ApiPort:         8080,
		MetricsPort:     12799,
		ShutdownTimeout: DefaultShutdownTimeout,
		Asset:           "gov-token",
		Custody:         "referendum",
		WindowLength:    DefaultWindowLength,
		DayLength:       DefaultDayLength,
		Sessions:        DefaultSessions,
		TransferWorkers: DefaultTransferWorkers,
		EventHistory:    256,
	}
}

func LoadConfig(configFile string) (*Config, error) {
	if configFile == "" {
		// Check for config file in this path: ~/.referendum/referendum.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(
				homeDir,
				".referendum",
				"referendum.yaml",
			)
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
		if configFile == "" {
			systemPath := "/etc/referendum/referendum.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		var tempCfg tempConfig
		if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
		if tempCfg.Config.Kind != 0 {
			// Overlay the config section onto existing defaults
			if err := tempCfg.Config.Decode(globalConfig); err != nil {
				return nil, fmt.Errorf("error parsing config section: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(buf, globalConfig); err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}
		if db := tempCfg.Database; db != nil {
			if db.Blob != "" {
				globalConfig.BlobPlugin = db.Blob
			}
			if db.Metadata != "" {
				globalConfig.MetadataPlugin = db.Metadata
			}
			if db.Dsn != "" {
				globalConfig.MetadataDsn = db.Dsn
			}
		}
	}
	// Process environment variables
	if err := envconfig.Process("referendum", globalConfig); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := globalConfig.Validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}

// Validate checks plugin names and parses every duration, time and amount
// setting so that bad values fail at startup
func (c *Config) Validate() error {
	if c.BlobPlugin == "list" || c.MetadataPlugin == "list" {
		return ErrPluginListRequested
	}
	if _, ok := plugin.GetPlugin(plugin.PluginTypeBlob, c.BlobPlugin); !ok {
		return fmt.Errorf("unknown blob plugin: %q", c.BlobPlugin)
	}
	if _, ok := plugin.GetPlugin(plugin.PluginTypeMetadata, c.MetadataPlugin); !ok {
		return fmt.Errorf("unknown metadata plugin: %q", c.MetadataPlugin)
	}
	for name, val := range map[string]string{
		"shutdownTimeout": c.ShutdownTimeout,
		"windowLength":    c.WindowLength,
		"dayLength":       c.DayLength,
	} {
		if _, err := time.ParseDuration(val); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	if _, err := c.GenesisTime(); err != nil {
		return err
	}
	if _, err := c.LockAmount(); err != nil {
		return err
	}
	if c.Sessions < 0 || c.TransferWorkers < 0 || c.EventHistory < 0 {
		return errors.New(
			"sessions, transferWorkers and eventHistory must not be negative",
		)
	}
	return nil
}

// GenesisTime parses the configured genesis. An empty value yields the zero
// time, which launches a new ledger immediately.
func (c *Config) GenesisTime() (time.Time, error) {
	if c.Genesis == "" {
		return time.Time{}, nil
	}
	ret, err := time.Parse(time.RFC3339, c.Genesis)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid genesis: %w", err)
	}
	return ret, nil
}

// LockAmount parses the proposal bond. Empty means the ledger default.
func (c *Config) LockAmount() (*uint256.Int, error) {
	if c.LockAmountPerProposal == "" {
		return nil, nil
	}
	ret, err := uint256.FromDecimal(c.LockAmountPerProposal)
	if err != nil {
		return nil, fmt.Errorf("invalid lockAmountPerProposal: %w", err)
	}
	return ret, nil
}

// Durations returns the window length, day length and shutdown timeout.
// Validate must have succeeded first.
func (c *Config) Durations() (window, day, shutdown time.Duration) {
	window, _ = time.ParseDuration(c.WindowLength)
	day, _ = time.ParseDuration(c.DayLength)
	shutdown, _ = time.ParseDuration(c.ShutdownTimeout)
	return window, day, shutdown
}
