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
	"context"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // #nosec G108
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/referendum"
	"github.com/blinklabs-io/referendum/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// nodeOptions translates the loaded config into node options
func nodeOptions(
	cfg *config.Config,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) ([]referendum.ConfigOptionFunc, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	genesis, err := cfg.GenesisTime()
	if err != nil {
		return nil, err
	}
	lockAmount, err := cfg.LockAmount()
	if err != nil {
		return nil, err
	}
	windowLength, dayLength, shutdownTimeout := cfg.Durations()
	opts := []referendum.ConfigOptionFunc{
		referendum.WithLogger(logger),
		referendum.WithDatabasePath(cfg.DatabasePath),
		referendum.WithBlobPlugin(cfg.BlobPlugin),
		referendum.WithMetadataPlugin(cfg.MetadataPlugin),
		referendum.WithMetadataDsn(cfg.MetadataDsn),
		referendum.WithAsset(cfg.Asset, cfg.Custody),
		referendum.WithOwner(cfg.Owner),
		referendum.WithGenesis(genesis),
		referendum.WithSessionTiming(windowLength, dayLength, cfg.Sessions),
		referendum.WithLockAmountPerProposal(lockAmount),
		referendum.WithTransferWorkers(cfg.TransferWorkers),
		referendum.WithEventHistory(cfg.EventHistory),
		referendum.WithPrometheusRegistry(promRegistry),
		referendum.WithTracing(cfg.Tracing),
		referendum.WithTracingStdout(cfg.TracingStdout),
		referendum.WithShutdownTimeout(shutdownTimeout),
	}
	if cfg.ApiPort > 0 {
		opts = append(
			opts,
			referendum.WithApiListenAddress(
				fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.ApiPort),
			),
		)
	}
	return opts, nil
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	opts, err := nodeOptions(cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	_, _, shutdownTimeout := cfg.Durations()
	n, err := referendum.New(referendum.NewConfig(opts...))
	if err != nil {
		return err
	}
	// Metrics and debug listener
	var metricsServer *http.Server
	if cfg.MetricsPort > 0 {
		http.Handle("/metrics", promhttp.Handler())
		metricsAddr := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.MetricsPort)
		logger.Info(
			"serving prometheus metrics on "+metricsAddr,
			"component",
			"node",
		)
		metricsServer = &http.Server{
			Addr:              metricsAddr,
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil &&
				err != http.ErrServerClosed {
				logger.Error(
					fmt.Sprintf("failed to start metrics listener: %s", err),
					"component", "node",
				)
				os.Exit(1)
			}
		}()
	}
	stopMetrics := func() {
		if metricsServer == nil {
			return
		}
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	// Run node in goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- n.Run(signalCtx)
	}()

	runErr := <-errChan
	if runErr == nil {
		logger.Info("signal received, initiating graceful shutdown")
	} else {
		logger.Error("node error", "error", runErr)
	}
	stopMetrics()
	if err := n.Stop(); err != nil {
		logger.Error("shutdown errors occurred", "error", err)
		if runErr == nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}
	logger.Info("shutdown complete")
	return nil
}
