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

package event_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/blinklabs-io/referendum/event"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receive(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()
	select {
	case evt, ok := <-ch:
		require.True(t, ok, "event channel closed unexpectedly")
		return evt
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	return event.Event{}
}

func TestEventBusSubscribers(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, sub1 := eb.Subscribe(event.LockEventType)
	_, sub2 := eb.Subscribe(event.LockEventType)
	_, other := eb.Subscribe(event.VoteEventType)
	data := event.LockEvent{Account: "alice", Windows: 10}
	eb.Publish(event.LockEventType, event.NewEvent(event.LockEventType, data))
	for _, ch := range []<-chan event.Event{sub1, sub2} {
		evt := receive(t, ch)
		assert.Equal(t, event.LockEventType, evt.Type)
		got, ok := evt.Data.(event.LockEvent)
		require.True(t, ok)
		assert.Equal(t, "alice", got.Account)
	}
	select {
	case <-other:
		t.Fatal("unexpected event for other type")
	default:
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	subId, ch := eb.Subscribe(event.VoteEventType)
	eb.Unsubscribe(event.VoteEventType, subId)
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed")
	// Publishing without subscribers is a no-op
	eb.Publish(event.VoteEventType, event.NewEvent(event.VoteEventType, nil))
}

func TestEventBusSubscribeFunc(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	got := make(chan uint32, 1)
	eb.SubscribeFunc(event.ProposalEventType, func(evt event.Event) {
		got <- evt.Data.(event.ProposalEvent).ProposalID
	})
	eb.Publish(
		event.ProposalEventType,
		event.NewEvent(event.ProposalEventType, event.ProposalEvent{ProposalID: 7}),
	)
	select {
	case id := <-got:
		assert.Equal(t, uint32(7), id)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for handler")
	}
}

func TestEventBusPublishAsync(t *testing.T) {
	reg := prometheus.NewRegistry()
	eb := event.NewEventBus(reg, nil)
	_, ch := eb.Subscribe(event.TransferEventType)
	ok := eb.PublishAsync(
		event.TransferEventType,
		event.NewEvent(event.TransferEventType, event.TransferEvent{Token: 3}),
	)
	require.True(t, ok)
	evt := receive(t, ch)
	assert.Equal(t, uint64(3), evt.Data.(event.TransferEvent).Token)
	eb.Stop()
	assert.False(
		t,
		eb.PublishAsync(event.TransferEventType, event.NewEvent(event.TransferEventType, nil)),
	)
	count, err := testutil.GatherAndCount(reg, "referendum_event_published_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestEventBusStopClosesSubscribers(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	_, ch := eb.Subscribe(event.SessionAdvancedEventType)
	eb.Stop()
	eb.Stop()
	_, ok := <-ch
	assert.False(t, ok)
}
