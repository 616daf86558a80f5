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

// Package asset describes the fungible asset the ledger takes custody of and
// provides an in-memory implementation for tests and local runs.
package asset

import (
	"context"
	"errors"

	"github.com/holiman/uint256"
)

var (
	ErrNotRegistered       = errors.New("account not registered with asset")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("invalid amount")
)

// TransferRequest moves Amount out of custody to To. Token correlates the
// request with the ledger's pending transfer record and makes retries safe.
type TransferRequest struct {
	Token  uint64
	To     string
	Amount uint256.Int
	Memo   string
}

// Asset is the outbound side of the asset subsystem
type Asset interface {
	ID() string
	// Transfer completes with nil or reports the failure. Repeating a request
	// with a token that already succeeded is a no-op.
	Transfer(ctx context.Context, req TransferRequest) error
	BalanceOf(ctx context.Context, account string) (*uint256.Int, error)
}

// Receiver is called after funds have moved into custody. The returned amount
// is refunded to the sender.
type Receiver interface {
	OnAssetTransfer(
		ctx context.Context,
		assetID string,
		sender string,
		amount *uint256.Int,
		msg string,
	) (*uint256.Int, error)
}
