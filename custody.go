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
	"fmt"

	"github.com/blinklabs-io/referendum/api"
	"github.com/blinklabs-io/referendum/asset"
	"github.com/blinklabs-io/referendum/ledger"
	"github.com/holiman/uint256"
)

// localAsset is the in-process token used when the node runs standalone.
// A wallet is opened by the first deposit from its owner. Payouts to an
// account without a wallet fail.
type localAsset struct {
	*asset.MemoryLedger
}

func newLocalAsset(id string, custody string) *localAsset {
	return &localAsset{
		MemoryLedger: asset.NewMemoryLedger(id, custody),
	}
}

// deposit mints amount to sender and moves it into custody through a
// transfer call to receiver. It returns the amount handed back to sender.
func (a *localAsset) deposit(
	ctx context.Context,
	sender string,
	receiver asset.Receiver,
	amount *uint256.Int,
	msg string,
) (*uint256.Int, error) {
	a.Register(sender)
	if err := a.Mint(sender, amount); err != nil {
		return amount.Clone(), err
	}
	kept, err := a.TransferCall(ctx, sender, receiver, amount, msg)
	if err != nil {
		return amount.Clone(), err
	}
	return new(uint256.Int).Sub(amount, kept), nil
}

// seedCustody restores the custody balance after a restart. Custody holds
// the locked principal, every bond not yet released and every transfer still
// pending. Wallets are reopened for registered accounts, for proposers with
// a bond in custody and for recipients of pending transfers.
func seedCustody(
	ctx context.Context,
	ls *ledger.LedgerState,
	a *localAsset,
) (*uint256.Int, error) {
	meta, err := ls.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := ls.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, acct := range accounts {
		a.Register(acct)
	}
	total := meta.LockedAmount.Clone()
	proposals, err := ls.Proposals(ctx, ledger.ProposalFilter{})
	if err != nil {
		return nil, err
	}
	for _, p := range proposals {
		if p.LockAmount.IsZero() {
			continue
		}
		a.Register(p.Proposer)
		total.Add(total, &p.LockAmount)
	}
	pending, err := ls.PendingTransfers(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range pending {
		a.Register(t.Account)
		total.Add(total, &t.Amount)
	}
	if total.IsZero() {
		return total, nil
	}
	if err := a.Mint(a.Custody(), total); err != nil {
		return nil, fmt.Errorf("seed custody: %w", err)
	}
	return total, nil
}

// custodyLedger fronts the ledger for the API when the node runs its own
// asset. Deposits and proposal bonds are minted to the caller and then moved
// into custody, so that withdrawals and bond releases have funds to pay out.
type custodyLedger struct {
	*ledger.LedgerState
	asset *localAsset
}

var _ api.Ledger = (*custodyLedger)(nil)

func (c *custodyLedger) OnAssetTransfer(
	ctx context.Context,
	assetID string,
	sender string,
	amount *uint256.Int,
	msg string,
) (*uint256.Int, error) {
	if amount == nil || amount.IsZero() {
		return nil, ledger.ErrInvalidAmount
	}
	if assetID != c.asset.ID() {
		return amount.Clone(), fmt.Errorf("%w: %s", ledger.ErrIllegalAsset, assetID)
	}
	return c.asset.deposit(ctx, sender, c.LedgerState, amount, msg)
}

func (c *custodyLedger) AddProposal(
	ctx context.Context,
	req ledger.AddProposalRequest,
) (uint32, error) {
	if req.Deposit == nil || req.Deposit.IsZero() || req.Proposer == "" {
		// Let the ledger report the problem
		return c.LedgerState.AddProposal(ctx, req)
	}
	recv := &bondReceiver{ls: c.LedgerState, req: req}
	if _, err := c.asset.deposit(ctx, req.Proposer, recv, req.Deposit, ""); err != nil {
		return 0, err
	}
	return recv.id, nil
}

// bondReceiver files a proposal with the funds that arrive in custody
type bondReceiver struct {
	ls  *ledger.LedgerState
	req ledger.AddProposalRequest
	id  uint32
}

func (r *bondReceiver) OnAssetTransfer(
	ctx context.Context,
	_ string,
	sender string,
	amount *uint256.Int,
	_ string,
) (*uint256.Int, error) {
	req := r.req
	req.Proposer = sender
	req.Deposit = amount
	id, err := r.ls.AddProposal(ctx, req)
	if err != nil {
		return amount, err
	}
	r.id = id
	return nil, nil
}
