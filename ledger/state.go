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

package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/referendum/asset"
	"github.com/blinklabs-io/referendum/database"
	"github.com/blinklabs-io/referendum/database/models"
	"github.com/blinklabs-io/referendum/event"
	"github.com/blinklabs-io/referendum/rational"
	"github.com/blinklabs-io/referendum/session"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultWindowLength          = 30 * 24 * time.Hour
	DefaultDayLength             = 24 * time.Hour
	DefaultLockAmountPerProposal = 100

	// maxAmountBits bounds user supplied amounts so that ballot products
	// stay well inside 256 bits
	maxAmountBits = 128
)

var tracer = otel.Tracer("github.com/blinklabs-io/referendum/ledger")

type LedgerStateConfig struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	EventBus     *event.EventBus
	// Database is used when set. Otherwise one is opened from DataDir and
	// the plugin settings, and closed with the ledger.
	Database       *database.Database
	DataDir        string
	BlobPlugin     string
	MetadataPlugin string
	MetadataDsn    string
	// Asset receives outbound transfers. LockedAsset defaults to its ID.
	Asset       asset.Asset
	LockedAsset string
	NowFunc     func() time.Time
	// TransferWorkers is the dispatcher pool size. Zero leaves transfers
	// pending until DispatchPending or ResolveTransfer is called.
	TransferWorkers int

	// The remaining fields only apply when the ledger is first created.
	// Afterwards the persisted state wins.
	Owner                 string
	Genesis               time.Time
	WindowLength          time.Duration
	DayLength             time.Duration
	Sessions              int
	LockAmountPerProposal *uint256.Int
	RelativePolicy        *VotePolicy
	AbsolutePolicy        *VotePolicy
	NonsenseThreshold     *rational.Rational
}

// contractState is the singleton aggregate owned by LedgerState
type contractState struct {
	owner                 string
	lockedAsset           string
	clock                 session.Clock
	ring                  *session.Ring
	curLockAmount         uint256.Int
	nextProposalID        uint32
	lockAmountPerProposal uint256.Int
	policies              [2]VotePolicy
	nonsenseThreshold     rational.Rational
	accountCount          uint64
	lastTransferToken     uint64
}

func (s *contractState) clone() *contractState {
	ret := *s
	ret.ring = s.ring.Clone()
	return &ret
}

type LedgerState struct {
	mu         sync.Mutex
	config     LedgerStateConfig
	logger     *slog.Logger
	db         *database.Database
	ownsDb     bool
	state      *contractState
	metrics    stateMetrics
	dispatcher *Dispatcher
}

func NewLedgerState(cfg LedgerStateConfig) (*LedgerState, error) {
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.NowFunc == nil {
		cfg.NowFunc = time.Now
	}
	if cfg.LockedAsset == "" && cfg.Asset != nil {
		cfg.LockedAsset = cfg.Asset.ID()
	}
	ls := &LedgerState{
		config: cfg,
		logger: cfg.Logger.With("component", "ledger"),
		db:     cfg.Database,
	}
	ls.metrics.init(cfg.PromRegistry)
	if ls.db == nil {
		db, err := database.New(&database.Config{
			Logger:         cfg.Logger,
			PromRegistry:   cfg.PromRegistry,
			DataDir:        cfg.DataDir,
			BlobPlugin:     cfg.BlobPlugin,
			MetadataPlugin: cfg.MetadataPlugin,
			MetadataDsn:    cfg.MetadataDsn,
		})
		if db == nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err != nil {
			var dbErr database.CommitTimestampError
			if !errors.As(err, &dbErr) {
				_ = db.Close()
				return nil, err
			}
			// The blob store is authoritative, so the ledger can run. Query
			// results may lag until the affected records are written again.
			ls.logger.Warn(
				"metadata index out of sync with blob store",
				"error", err,
				"index_behind", dbErr.IndexBehind(),
			)
		}
		ls.db = db
		ls.ownsDb = true
	}
	if err := ls.loadState(); err != nil {
		_ = ls.closeDb()
		return nil, err
	}
	pendingStatus := uint8(TransferPending)
	pending, err := ls.db.GetTransfers(&pendingStatus, nil)
	if err != nil {
		_ = ls.closeDb()
		return nil, fmt.Errorf("load pending transfers: %w", err)
	}
	ls.metrics.pendingTransfers.Set(float64(len(pending)))
	if cfg.Asset != nil {
		ls.dispatcher = newDispatcher(ls, cfg.Asset, cfg.TransferWorkers, ls.logger)
	}
	ls.updateMetrics()
	return ls, nil
}

// Start launches the transfer dispatcher and re-dispatches any transfers
// left pending by a previous run
func (ls *LedgerState) Start(ctx context.Context) error {
	if ls.dispatcher == nil {
		return nil
	}
	return ls.dispatcher.Start(ctx)
}

func (ls *LedgerState) Close() error {
	if ls.dispatcher != nil {
		ls.dispatcher.Stop()
	}
	return ls.closeDb()
}

func (ls *LedgerState) closeDb() error {
	if !ls.ownsDb {
		return nil
	}
	return ls.db.Close()
}

func (ls *LedgerState) Database() *database.Database {
	return ls.db
}

func (ls *LedgerState) now() time.Time {
	return ls.config.NowFunc()
}

func (ls *LedgerState) loadState() error {
	rec, err := ls.db.GetState(nil)
	if err == nil {
		state, err := contractStateFromModel(rec)
		if err != nil {
			return err
		}
		ls.state = state
		if ls.config.LockedAsset != "" && ls.config.LockedAsset != state.lockedAsset {
			return fmt.Errorf(
				"%w: configured asset %q does not match stored asset %q",
				ErrInvalidConfig,
				ls.config.LockedAsset,
				state.lockedAsset,
			)
		}
		ls.logger.Debug(
			"loaded ledger state",
			"genesis", state.clock.Genesis,
			"proposals", state.nextProposalID,
			"accounts", state.accountCount,
		)
		return nil
	}
	if !errors.Is(err, models.ErrStateNotFound) {
		return fmt.Errorf("load ledger state: %w", err)
	}
	state, err := ls.initialState()
	if err != nil {
		return err
	}
	err = ls.db.Transaction(true).Do(func(txn *database.Txn) error {
		return ls.db.SetState(state.toModel(), txn)
	})
	if err != nil {
		return fmt.Errorf("store initial ledger state: %w", err)
	}
	ls.state = state
	ls.logger.Info(
		"created ledger",
		"owner", state.owner,
		"asset", state.lockedAsset,
		"genesis", state.clock.Genesis,
		"sessions", state.ring.Capacity(),
	)
	return nil
}

func (ls *LedgerState) initialState() (*contractState, error) {
	cfg := ls.config
	if cfg.Owner == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidConfig)
	}
	if cfg.LockedAsset == "" {
		return nil, fmt.Errorf("%w: locked asset is required", ErrInvalidConfig)
	}
	state := &contractState{
		owner:       cfg.Owner,
		lockedAsset: cfg.LockedAsset,
		clock: session.Clock{
			Genesis:      cfg.Genesis,
			WindowLength: cfg.WindowLength,
			DayLength:    cfg.DayLength,
		},
		policies: [2]VotePolicy{
			DefaultRelativePolicy,
			DefaultAbsolutePolicy,
		},
		nonsenseThreshold: DefaultNonsenseThreshold,
	}
	if state.clock.Genesis.IsZero() {
		state.clock.Genesis = ls.now()
	}
	if state.clock.WindowLength == 0 {
		state.clock.WindowLength = DefaultWindowLength
	}
	if state.clock.DayLength == 0 {
		state.clock.DayLength = DefaultDayLength
	}
	if err := state.clock.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if cfg.Sessions < 0 {
		return nil, fmt.Errorf("%w: sessions must not be negative", ErrInvalidConfig)
	}
	state.ring = session.NewRing(cfg.Sessions)
	state.lockAmountPerProposal.SetUint64(DefaultLockAmountPerProposal)
	if cfg.LockAmountPerProposal != nil {
		if cfg.LockAmountPerProposal.IsZero() {
			return nil, fmt.Errorf("%w: proposal bond must be positive", ErrInvalidConfig)
		}
		state.lockAmountPerProposal.Set(cfg.LockAmountPerProposal)
	}
	for _, p := range []*VotePolicy{cfg.RelativePolicy, cfg.AbsolutePolicy} {
		if p == nil {
			continue
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		state.policies[p.Type] = *p
	}
	if cfg.NonsenseThreshold != nil {
		if err := cfg.NonsenseThreshold.Validate(); err != nil {
			return nil, fmt.Errorf("%w: nonsense threshold: %w", ErrInvalidConfig, err)
		}
		state.nonsenseThreshold = *cfg.NonsenseThreshold
	}
	return state, nil
}

// mutation carries the working copy of the ledger through a single entry
// point. The copy replaces the live state only if the transaction commits.
type mutation struct {
	ctx         context.Context
	ls          *LedgerState
	txn         *database.Txn
	now         time.Time
	window      uint32
	state       *contractState
	tickets     []Ticket
	events      []event.Event
	afterCommit []func()
}

// mutate runs fn under the ledger lock inside a read-write transaction. Any
// error or panic discards every write made by fn.
func (ls *LedgerState) mutate(
	ctx context.Context,
	op string,
	fn func(*mutation) error,
) error {
	ctx, span := tracer.Start(ctx, "ledger."+op)
	defer span.End()
	m, err := ls.apply(ctx, fn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		ls.logger.Debug("operation failed", "op", op, "error", err)
		return err
	}
	span.SetAttributes(attribute.Int64("ledger.window", int64(m.window)))
	for _, f := range m.afterCommit {
		f()
	}
	ls.publish(m.events)
	if ls.dispatcher != nil && len(m.tickets) > 0 {
		ls.dispatcher.Enqueue(m.tickets)
	}
	return nil
}

func (ls *LedgerState) apply(
	ctx context.Context,
	fn func(*mutation) error,
) (*mutation, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	m := &mutation{
		ctx:   ctx,
		ls:    ls,
		now:   ls.now(),
		state: ls.state.clone(),
	}
	err := ls.db.Transaction(true).Do(func(txn *database.Txn) error {
		m.txn = txn
		if err := fn(m); err != nil {
			return err
		}
		return ls.db.SetState(m.state.toModel(), txn)
	})
	if err != nil {
		if errors.Is(err, database.ErrTxnPanic) {
			ls.logger.Error("recovered from panic", "error", err)
			err = fmt.Errorf("%w: %w", ErrInternal, err)
		}
		return nil, err
	}
	ls.state = m.state
	ls.updateMetrics()
	return m, nil
}

// view runs fn under the ledger lock with a read-only transaction
func (ls *LedgerState) view(
	ctx context.Context,
	op string,
	fn func(txn *database.Txn, state *contractState, now time.Time) error,
) error {
	_, span := tracer.Start(ctx, "ledger."+op, trace.WithAttributes(
		attribute.Bool("ledger.readonly", true),
	))
	defer span.End()
	ls.mu.Lock()
	defer ls.mu.Unlock()
	txn := ls.db.Transaction(false)
	defer txn.Release()
	if err := fn(txn, ls.state, ls.now()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// refresh advances the session ring to the window containing now. Every
// entry point that depends on live ballots calls it first.
func (m *mutation) refresh() error {
	window, err := m.state.clock.Window(m.now)
	if err != nil {
		return err
	}
	m.window = window
	opened := m.state.ring.Refresh(window)
	if len(opened) > 0 {
		m.emit(event.SessionAdvancedEventType, event.SessionAdvancedEvent{
			Window:      window,
			Opened:      opened,
			TotalBallot: m.state.ring.TotalBallot,
		})
		m.ls.logger.Debug(
			"session ring advanced",
			"window", window,
			"opened", len(opened),
		)
	}
	return nil
}

func (m *mutation) emit(eventType event.EventType, data any) {
	m.events = append(m.events, event.NewEvent(eventType, data))
}

func (m *mutation) onCommit(fn func()) {
	m.afterCommit = append(m.afterCommit, fn)
}

func (ls *LedgerState) publish(events []event.Event) {
	if ls.config.EventBus == nil {
		return
	}
	for _, evt := range events {
		ls.config.EventBus.Publish(evt.Type, evt)
	}
}

func checkAmount(amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}
	if amount.BitLen() > maxAmountBits {
		return fmt.Errorf("%w: exceeds %d bits", ErrInvalidAmount, maxAmountBits)
	}
	return nil
}
