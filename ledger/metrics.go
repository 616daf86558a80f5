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
	"math/big"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type stateMetrics struct {
	currentWindow    prometheus.Gauge
	totalBallot      prometheus.Gauge
	lockedAmount     prometheus.Gauge
	accounts         prometheus.Gauge
	proposalCount    prometheus.Gauge
	pendingTransfers prometheus.Gauge
	locks            *prometheus.CounterVec
	votes            *prometheus.CounterVec
	proposals        *prometheus.CounterVec
	transfers        *prometheus.CounterVec
	compensations    prometheus.Counter
}

func (m *stateMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.currentWindow = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "referendum_session_window",
		Help: "session window the ring was last refreshed to",
	})
	m.totalBallot = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "referendum_ballot_total",
		Help: "live ballot power as of the last refresh",
	})
	m.lockedAmount = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "referendum_locked_amount",
		Help: "principal currently locked",
	})
	m.accounts = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "referendum_accounts",
		Help: "registered accounts",
	})
	m.proposalCount = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "referendum_proposals_created",
		Help: "proposals created since genesis",
	})
	m.pendingTransfers = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "referendum_transfers_pending",
		Help: "outbound transfers awaiting resolution",
	})
	m.locks = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "referendum_locks_total",
			Help: "locks applied, by mode",
		},
		[]string{"mode"},
	)
	m.votes = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "referendum_votes_total",
			Help: "votes tallied, including lock top-ups, by action",
		},
		[]string{"action"},
	)
	m.proposals = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "referendum_proposal_transitions_total",
			Help: "proposals entering each status",
		},
		[]string{"status"},
	)
	m.transfers = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "referendum_transfers_total",
			Help: "resolved outbound transfers, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
	m.compensations = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "referendum_withdraw_compensations_total",
		Help: "failed withdrawals whose principal was restored",
	})
}

func toFloat(v *uint256.Int) float64 {
	ret, _ := new(big.Float).SetInt(v.ToBig()).Float64()
	return ret
}

// updateMetrics refreshes the gauges from the live state. The caller holds
// the ledger lock.
func (ls *LedgerState) updateMetrics() {
	state := ls.state
	if cur, ok := state.ring.Current(); ok {
		ls.metrics.currentWindow.Set(float64(cur))
	}
	ls.metrics.totalBallot.Set(toFloat(&state.ring.TotalBallot))
	ls.metrics.lockedAmount.Set(toFloat(&state.curLockAmount))
	ls.metrics.accounts.Set(float64(state.accountCount))
	ls.metrics.proposalCount.Set(float64(state.nextProposalID))
}
