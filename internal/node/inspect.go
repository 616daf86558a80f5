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
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/referendum/internal/config"
	"github.com/blinklabs-io/referendum/ledger"
)

// Inspect opens the ledger in the configured database and prints its
// metadata, the session ring and any transfers still pending
func Inspect(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	w io.Writer,
) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	genesis, err := cfg.GenesisTime()
	if err != nil {
		return err
	}
	lockAmount, err := cfg.LockAmount()
	if err != nil {
		return err
	}
	windowLength, dayLength, _ := cfg.Durations()
	ls, err := ledger.NewLedgerState(ledger.LedgerStateConfig{
		Logger:                logger,
		DataDir:               cfg.DatabasePath,
		BlobPlugin:            cfg.BlobPlugin,
		MetadataPlugin:        cfg.MetadataPlugin,
		MetadataDsn:           cfg.MetadataDsn,
		LockedAsset:           cfg.Asset,
		Owner:                 cfg.Owner,
		Genesis:               genesis,
		WindowLength:          windowLength,
		DayLength:             dayLength,
		Sessions:              cfg.Sessions,
		LockAmountPerProposal: lockAmount,
	})
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer ls.Close()

	meta, err := ls.Metadata(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%-18s %s\n", "Owner:", meta.Owner)
	fmt.Fprintf(w, "%-18s %s\n", "Asset:", meta.LockedAsset)
	fmt.Fprintf(w, "%-18s %s\n", "Genesis:", meta.Genesis.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "%-18s %s / %s\n", "Window / day:", meta.WindowLength, meta.DayLength)
	fmt.Fprintf(w, "%-18s %t\n", "Launched:", meta.Launched)
	fmt.Fprintf(w, "%-18s %d\n", "Current window:", meta.CurrentWindow)
	fmt.Fprintf(w, "%-18s %s\n", "Total ballots:", meta.TotalBallot.Dec())
	fmt.Fprintf(w, "%-18s %s\n", "Locked amount:", meta.LockedAmount.Dec())
	fmt.Fprintf(w, "%-18s %d\n", "Accounts:", meta.AccountCount)
	fmt.Fprintf(w, "%-18s %d\n", "Proposals:", meta.ProposalCount)
	fmt.Fprintf(w, "%-18s %s\n", "Proposal bond:", meta.LockAmountPerProposal.Dec())
	fmt.Fprintf(w, "%-18s %s\n", "Relative policy:", meta.RelativePolicy.String())
	fmt.Fprintf(w, "%-18s %s\n", "Absolute policy:", meta.AbsolutePolicy.String())
	fmt.Fprintf(w, "%-18s %s\n", "Nonsense:", meta.NonsenseThreshold.String())

	fmt.Fprintf(w, "\n%-6s  %-10s  %s\n", "SLOT", "SESSION", "EXPIRING")
	for idx := range meta.Sessions {
		info, err := ls.SessionState(ctx, idx)
		if err != nil {
			return err
		}
		fmt.Fprintf(
			w,
			"%-6d  %-10d  %s\n",
			idx,
			info.SessionID,
			info.ExpireAmount.Dec(),
		)
	}

	pending := ledger.TransferPending
	transfers, err := ls.Transfers(ctx, &pending)
	if err != nil {
		return err
	}
	if len(transfers) == 0 {
		fmt.Fprintln(w, "\nNo pending transfers.")
		return nil
	}
	fmt.Fprintf(
		w,
		"\n%-8s  %-10s  %-20s  %20s  %s\n",
		"TOKEN",
		"KIND",
		"ACCOUNT",
		"AMOUNT",
		"ISSUED",
	)
	for _, t := range transfers {
		fmt.Fprintf(
			w,
			"%-8d  %-10s  %-20s  %20s  %s\n",
			t.Token,
			t.Kind.String(),
			t.Account,
			t.Amount.Dec(),
			t.IssuedAt.UTC().Format(time.RFC3339),
		)
	}
	return nil
}
