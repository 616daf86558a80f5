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

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/blinklabs-io/referendum/event"
)

const DefaultListenAddress = ":8080"

type Config struct {
	ListenAddress string
	// EventBus feeds GET /api/v0/events when set
	EventBus *event.EventBus
	// EventHistory is how many recent events are kept
	EventHistory int
}

// Server is the REST API over a ledger
type Server struct {
	config     Config
	logger     *slog.Logger
	ledger     Ledger
	events     *eventLog
	httpServer *http.Server
	mu         sync.Mutex
}

// New creates a new API server instance
func New(
	cfg Config,
	ledger Ledger,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	s := &Server{
		config: cfg,
		logger: logger,
		ledger: ledger,
	}
	if cfg.EventBus != nil {
		s.events = newEventLog(cfg.EventBus, cfg.EventHistory)
	}
	return s
}

// Handler returns the routes served by the API
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/v0/metadata", s.handleMetadata)
	mux.HandleFunc("GET /api/v0/ballots", s.handleBallots)
	mux.HandleFunc("GET /api/v0/sessions/{idx}", s.handleSession)
	mux.HandleFunc(
		"GET /api/v0/windows/{window}/proposals",
		s.handleWindowProposals,
	)
	mux.HandleFunc("POST /api/v0/accounts", s.handleRegister)
	mux.HandleFunc("DELETE /api/v0/accounts/{id}", s.handleUnregister)
	mux.HandleFunc("GET /api/v0/accounts/{id}", s.handleAccount)
	mux.HandleFunc("GET /api/v0/accounts/{id}/votes", s.handleAccountVotes)
	mux.HandleFunc("POST /api/v0/accounts/{id}/withdraw", s.handleWithdraw)
	mux.HandleFunc("POST /api/v0/deposits", s.handleDeposit)
	mux.HandleFunc("GET /api/v0/proposals", s.handleProposals)
	mux.HandleFunc("POST /api/v0/proposals", s.handleAddProposal)
	mux.HandleFunc("GET /api/v0/proposals/{id}", s.handleProposal)
	mux.HandleFunc("POST /api/v0/proposals/{id}/votes", s.handleVote)
	mux.HandleFunc(
		"POST /api/v0/proposals/{id}/remove",
		s.handleRemoveProposal,
	)
	mux.HandleFunc(
		"POST /api/v0/proposals/{id}/redeem",
		s.handleRedeemProposal,
	)
	mux.HandleFunc("GET /api/v0/transfers", s.handleTransfers)
	mux.HandleFunc(
		"POST /api/v0/transfers/{token}/resolve",
		s.handleResolveTransfer,
	)
	mux.HandleFunc("PUT /api/v0/admin/owner", s.handleSetOwner)
	mux.HandleFunc("PUT /api/v0/admin/genesis", s.handleSetGenesis)
	mux.HandleFunc("PUT /api/v0/admin/bond", s.handleSetBond)
	mux.HandleFunc("PUT /api/v0/admin/nonsense", s.handleSetNonsense)
	mux.HandleFunc("PUT /api/v0/admin/policy", s.handleSetPolicy)
	mux.HandleFunc("GET /api/v0/events", s.handleEvents)
	return s.withRequestLogging(mux)
}

// Start starts the HTTP server in a background goroutine
func (s *Server) Start(
	ctx context.Context,
) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	server := &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	s.httpServer = server
	s.mu.Unlock()

	if err := s.startServer(server); err != nil {
		s.mu.Lock()
		s.httpServer = nil
		s.mu.Unlock()
		return err
	}

	s.logger.Info(
		"API listener started on " + s.config.ListenAddress,
	)

	// Monitor context for cancellation
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		srv := s.httpServer
		s.httpServer = nil
		s.mu.Unlock()

		if srv != nil {
			s.logger.Debug(
				"context cancelled, shutting down API server",
			)
			//nolint:contextcheck
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				30*time.Second,
			)
			defer cancel()
			//nolint:contextcheck
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Error(
					"failed to shutdown API server on context cancellation",
					"error", err,
				)
			}
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server and detaches from the event bus
func (s *Server) Stop(
	ctx context.Context,
) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()

	if s.events != nil {
		s.events.close()
	}
	if srv != nil {
		s.logger.Debug("shutting down API server")
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown API server: %w", err)
		}
	}
	return nil
}

// startServer binds the listening socket first so port conflicts are
// detected immediately, then serves in a background goroutine
func (s *Server) startServer(
	server *http.Server,
) error {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(
				"API server error",
				"error", err,
			)
		}
	}()
	return nil
}
