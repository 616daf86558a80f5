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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/referendum/api"
	"github.com/blinklabs-io/referendum/event"
	"github.com/blinklabs-io/referendum/ledger"
)

type Node struct {
	eventBus      *event.EventBus
	asset         *localAsset
	ledgerState   *ledger.LedgerState
	api           *api.Server
	shutdownFuncs []func(context.Context) error
	config        Config
	done          chan struct{}
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	n := &Node{
		config: cfg,
		done:   make(chan struct{}),
	}
	if err := n.configValidate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	n.eventBus = event.NewEventBus(cfg.promRegistry, cfg.logger)
	return n, nil
}

// Run starts the node and blocks until ctx is cancelled or Stop is called
func (n *Node) Run(ctx context.Context) error {
	if err := n.start(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-n.done:
	}
	return nil
}

func (n *Node) start(ctx context.Context) error {
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	// Load ledger state
	n.asset = newLocalAsset(n.config.assetID, n.config.custodyAccount)
	lsCfg := n.config.ledgerConfig()
	lsCfg.EventBus = n.eventBus
	lsCfg.Asset = n.asset
	ls, err := ledger.NewLedgerState(lsCfg)
	if err != nil {
		return fmt.Errorf("failed to load ledger state: %w", err)
	}
	n.ledgerState = ls
	meta, err := ls.Metadata(ctx)
	if err != nil {
		return fmt.Errorf("failed to read ledger metadata: %w", err)
	}
	if meta.LockedAsset != n.config.assetID {
		return fmt.Errorf(
			"ledger locks %q, node configured for %q",
			meta.LockedAsset,
			n.config.assetID,
		)
	}
	seeded, err := seedCustody(ctx, ls, n.asset)
	if err != nil {
		return err
	}
	n.config.logger.Info(
		"ledger loaded",
		"component", "node",
		"owner", meta.Owner,
		"genesis", meta.Genesis,
		"launched", meta.Launched,
		"window", meta.CurrentWindow,
		"custody", seeded.Dec(),
	)
	// Start the transfer dispatcher
	if err := ls.Start(ctx); err != nil {
		return fmt.Errorf("failed to start transfer dispatcher: %w", err)
	}
	// Configure REST API
	if n.config.apiListenAddress != "" {
		n.api = api.New(
			api.Config{
				ListenAddress: n.config.apiListenAddress,
				EventBus:      n.eventBus,
				EventHistory:  n.config.eventHistory,
			},
			&custodyLedger{LedgerState: ls, asset: n.asset},
			n.config.logger,
		)
		if err := n.api.Start(ctx); err != nil {
			return fmt.Errorf("failed to start API: %w", err)
		}
	}
	return nil
}

// LedgerState returns the running ledger, or nil before Run
func (n *Node) LedgerState() *ledger.LedgerState {
	return n.ledgerState
}

// EventBus returns the node event bus
func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	shutdownTimeout := DefaultShutdownTimeout
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown", "component", "node")

	// Phase 1: Stop accepting new work
	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}

	// Phase 2: Stop the dispatcher and close the database
	if n.ledgerState != nil {
		if closeErr := n.ledgerState.Close(); closeErr != nil {
			err = errors.Join(
				err,
				fmt.Errorf("ledger state close: %w", closeErr),
			)
		}
	}

	// Phase 3: Cleanup resources
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	n.config.logger.Debug("graceful shutdown complete", "component", "node")
	close(n.done)
	return err
}
