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
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/referendum/asset"
)

const (
	dispatchQueueSize          = 256
	DefaultDispatchRetryPeriod = time.Minute
)

// Dispatcher executes transfer tickets against the asset and feeds each
// outcome back through ResolveTransfer
type Dispatcher struct {
	ls          *LedgerState
	asset       asset.Asset
	logger      *slog.Logger
	workers     int
	retryPeriod time.Duration
	queue       chan Ticket
	mu          sync.Mutex
	running     bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func newDispatcher(
	ls *LedgerState,
	a asset.Asset,
	workers int,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		ls:          ls,
		asset:       a,
		logger:      logger.With("subcomponent", "dispatcher"),
		workers:     workers,
		retryPeriod: DefaultDispatchRetryPeriod,
	}
}

// Start launches the worker pool. Transfers still pending from earlier runs
// are queued again. It does nothing without workers.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running || d.workers <= 0 {
		return nil
	}
	pending, err := d.ls.PendingTransfers(ctx)
	if err != nil {
		return fmt.Errorf("load pending transfers: %w", err)
	}
	ctx, d.cancel = context.WithCancel(ctx)
	d.queue = make(chan Ticket, dispatchQueueSize)
	d.running = true
	for range d.workers {
		d.wg.Add(1)
		go d.worker(ctx)
	}
	d.wg.Add(1)
	go d.retryLoop(ctx)
	if len(pending) > 0 {
		d.logger.Info("re-dispatching pending transfers", "count", len(pending))
		d.enqueueLocked(pending)
	}
	return nil
}

// Stop cancels in-flight work and waits for the workers. Transfers that
// did not complete stay pending.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.cancel()
	d.mu.Unlock()
	d.wg.Wait()
}

// Enqueue hands tickets to the workers. Tickets that do not fit in the queue
// stay pending and are picked up by the retry loop.
func (d *Dispatcher) Enqueue(tickets []Ticket) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	d.enqueueLocked(tickets)
}

func (d *Dispatcher) enqueueLocked(tickets []Ticket) {
	for _, t := range tickets {
		select {
		case d.queue <- t:
		default:
			d.logger.Warn(
				"transfer queue full, leaving transfer pending",
				"token", t.Token,
			)
		}
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-d.queue:
			if err := d.execute(ctx, t); err != nil {
				d.logger.Debug(
					"transfer not resolved",
					"token", t.Token,
					"error", err,
				)
			}
		}
	}
}

func (d *Dispatcher) retryLoop(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(d.retryPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pending, err := d.ls.PendingTransfers(ctx)
			if err != nil {
				d.logger.Error("failed to load pending transfers", "error", err)
				continue
			}
			d.Enqueue(pending)
		}
	}
}

// execute performs one transfer and resolves it. Cancellation leaves the
// transfer pending.
func (d *Dispatcher) execute(ctx context.Context, t Ticket) error {
	err := d.asset.Transfer(ctx, asset.TransferRequest{
		Token:  t.Token,
		To:     t.Account,
		Amount: t.Amount,
		Memo:   t.Memo,
	})
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		d.logger.Warn(
			"transfer failed",
			"token", t.Token,
			"kind", t.Kind.String(),
			"account", t.Account,
			"error", err,
		)
	}
	// Resolution must land even if the dispatcher is stopping
	return d.ls.ResolveTransfer(context.WithoutCancel(ctx), t.Token, err)
}

// DispatchPending runs every pending transfer inline and returns how many
// were resolved
func (ls *LedgerState) DispatchPending(ctx context.Context) (int, error) {
	if ls.dispatcher == nil {
		return 0, fmt.Errorf("%w: no asset configured", ErrInvalidConfig)
	}
	pending, err := ls.PendingTransfers(ctx)
	if err != nil {
		return 0, err
	}
	var resolved int
	for _, t := range pending {
		err := ls.dispatcher.execute(ctx, t)
		if err != nil {
			if errors.Is(err, ErrUnknownTransfer) {
				continue
			}
			return resolved, err
		}
		resolved++
	}
	return resolved, nil
}
