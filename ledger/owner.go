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
	"fmt"
	"time"

	"github.com/blinklabs-io/referendum/rational"
	"github.com/holiman/uint256"
)

func (m *mutation) requireOwner(caller string) error {
	if caller != m.state.owner {
		return fmt.Errorf("%w: %s", ErrNotOwner, caller)
	}
	return nil
}

// ownerOp runs fn for the owner without touching the session ring, so it is
// usable before launch
func (ls *LedgerState) ownerOp(
	ctx context.Context,
	op string,
	caller string,
	fn func(*mutation) error,
) error {
	return ls.mutate(ctx, op, func(m *mutation) error {
		if err := m.requireOwner(caller); err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
		m.onCommit(func() {
			m.ls.logger.Info("owner setting changed", "op", op, "owner", caller)
		})
		return nil
	})
}

func (ls *LedgerState) SetOwner(ctx context.Context, caller string, owner string) error {
	if owner == "" {
		return ErrInvalidAccount
	}
	return ls.ownerOp(ctx, "set_owner", caller, func(m *mutation) error {
		m.state.owner = owner
		return nil
	})
}

// ModifyGenesis moves the launch time. It is only allowed before launch and
// the new genesis must be in the future.
func (ls *LedgerState) ModifyGenesis(
	ctx context.Context,
	caller string,
	genesis time.Time,
) error {
	return ls.ownerOp(ctx, "modify_genesis", caller, func(m *mutation) error {
		if m.state.clock.Launched(m.now) {
			return ErrAlreadyLaunched
		}
		if !genesis.After(m.now) {
			return fmt.Errorf("%w: %s", ErrIllegalGenesis, genesis.Format(time.RFC3339))
		}
		m.state.clock.Genesis = genesis
		return nil
	})
}

// ModifyEndorsementAmount sets the bond required for new proposals
func (ls *LedgerState) ModifyEndorsementAmount(
	ctx context.Context,
	caller string,
	amount *uint256.Int,
) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	return ls.ownerOp(ctx, "modify_endorsement_amount", caller, func(m *mutation) error {
		m.state.lockAmountPerProposal.Set(amount)
		return nil
	})
}

func (ls *LedgerState) ModifyNonsenseThreshold(
	ctx context.Context,
	caller string,
	threshold rational.Rational,
) error {
	if err := threshold.Validate(); err != nil {
		return err
	}
	return ls.ownerOp(ctx, "modify_nonsense_threshold", caller, func(m *mutation) error {
		m.state.nonsenseThreshold = threshold
		return nil
	})
}

// ModifyVotePolicy replaces the configured policy of the same type. Existing
// proposals keep the policy they were created with.
func (ls *LedgerState) ModifyVotePolicy(
	ctx context.Context,
	caller string,
	policy VotePolicy,
) error {
	if err := policy.Validate(); err != nil {
		return err
	}
	return ls.ownerOp(ctx, "modify_vote_policy", caller, func(m *mutation) error {
		m.state.policies[policy.Type] = policy
		return nil
	})
}
