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

package main

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/blinklabs-io/referendum/internal/config"
	"github.com/blinklabs-io/referendum/internal/node"
	"github.com/spf13/cobra"
)

func inspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show ledger metadata, the session ring and pending transfers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return errors.New("no config found in context")
			}
			// Keep stdout for the report
			logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
			if globalFlags.debug {
				logger = slog.New(
					slog.NewJSONHandler(
						os.Stderr,
						&slog.HandlerOptions{Level: slog.LevelDebug},
					),
				)
			}
			return node.Inspect(cmd.Context(), cfg, logger, cmd.OutOrStdout())
		},
	}
	return cmd
}
