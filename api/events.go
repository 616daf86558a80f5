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
	"sync"

	"github.com/blinklabs-io/referendum/event"
)

const DefaultEventHistory = 256

var ledgerEventTypes = []event.EventType{
	event.SessionAdvancedEventType,
	event.LockEventType,
	event.WithdrawEventType,
	event.VoteEventType,
	event.ProposalEventType,
	event.TransferEventType,
}

// eventLog keeps the most recent ledger events in arrival order
type eventLog struct {
	mu      sync.Mutex
	bus     *event.EventBus
	subs    map[event.EventType]event.EventSubscriberId
	entries []EventResponse
	size    int
}

func newEventLog(bus *event.EventBus, size int) *eventLog {
	if size <= 0 {
		size = DefaultEventHistory
	}
	l := &eventLog{
		bus:  bus,
		subs: make(map[event.EventType]event.EventSubscriberId),
		size: size,
	}
	for _, eventType := range ledgerEventTypes {
		l.subs[eventType] = bus.SubscribeFunc(eventType, l.add)
	}
	return l
}

func (l *eventLog) add(evt event.Event) {
	entry := EventResponse{
		Type:      string(evt.Type),
		Timestamp: evt.Timestamp.UTC(),
		Data:      eventBody(evt.Data),
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.size {
		l.entries = l.entries[len(l.entries)-l.size:]
	}
}

// recent returns up to limit entries, newest last
func (l *eventLog) recent(limit int) []EventResponse {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := l.entries
	if limit > 0 && limit < len(entries) {
		entries = entries[len(entries)-limit:]
	}
	ret := make([]EventResponse, len(entries))
	copy(ret, entries)
	return ret
}

func (l *eventLog) close() {
	l.mu.Lock()
	subs := l.subs
	l.subs = nil
	l.mu.Unlock()
	for eventType, subId := range subs {
		l.bus.Unsubscribe(eventType, subId)
	}
}

// eventBody renders amounts as decimal strings
func eventBody(data any) any {
	switch d := data.(type) {
	case event.SessionAdvancedEvent:
		return map[string]any{
			"window":       d.Window,
			"opened":       d.Opened,
			"total_ballot": d.TotalBallot.Dec(),
		}
	case event.LockEvent:
		return map[string]any{
			"account":              d.Account,
			"amount":               d.Amount.Dec(),
			"windows":              d.Windows,
			"ballot":               d.Ballot.Dec(),
			"unlocking_session_id": d.UnlockingSessionID,
			"append":               d.Append,
		}
	case event.WithdrawEvent:
		return map[string]any{
			"account": d.Account,
			"amount":  d.Amount.Dec(),
			"token":   d.Token,
		}
	case event.VoteEvent:
		return map[string]any{
			"account":     d.Account,
			"proposal_id": d.ProposalID,
			"action":      d.Action,
			"amount":      d.Amount.Dec(),
			"top_up":      d.TopUp,
		}
	case event.ProposalEvent:
		return map[string]any{
			"proposal_id": d.ProposalID,
			"proposer":    d.Proposer,
			"previous":    d.Previous,
			"status":      d.Status,
		}
	case event.TransferEvent:
		return map[string]any{
			"token":   d.Token,
			"kind":    d.Kind,
			"account": d.Account,
			"amount":  d.Amount.Dec(),
			"status":  d.Status,
			"error":   d.Error,
		}
	default:
		return data
	}
}
