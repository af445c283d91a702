package eventbus_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/colonyops/inbox/internal/core/eventbus"
	"github.com/colonyops/inbox/internal/core/eventbus/testbus"
)

func TestEventBus_DeliversToSubscribers(t *testing.T) {
	tb := testbus.New(t)

	var got atomic.Int64
	tb.SubscribeInboxChanged(func(p eventbus.InboxChangedPayload) {
		got.Store(int64(p.Unread))
	})

	tb.PublishInboxChanged(eventbus.InboxChangedPayload{UserID: "42", Reason: "pushed", Unread: 3, Len: 4})
	tb.AssertPublished(t, eventbus.EventInboxChanged)

	assert.Eventually(t, func() bool { return got.Load() == 3 }, time.Second, 5*time.Millisecond)
}

func TestEventBus_SubscriberPanicIsRecovered(t *testing.T) {
	bus := eventbus.New(8)

	var panics atomic.Int32
	bus.OnPanic(func(eventbus.Event, any, any) { panics.Add(1) })

	var delivered atomic.Bool
	bus.SubscribeSessionStarted(func(eventbus.SessionStartedPayload) { panic("boom") })
	bus.SubscribeSessionStarted(func(eventbus.SessionStartedPayload) { delivered.Store(true) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Start(ctx)

	bus.PublishSessionStarted(eventbus.SessionStartedPayload{SessionID: "s", UserID: "42"})

	assert.Eventually(t, func() bool { return delivered.Load() && panics.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestEventBus_DropsWhenBufferFull(t *testing.T) {
	bus := eventbus.New(1)

	var dropped, published atomic.Int32
	bus.OnDrop(func(eventbus.Event, any) { dropped.Add(1) })
	bus.OnPublish(func(eventbus.Event, any) { published.Add(1) })

	// Not started: the first event fills the buffer, the second is dropped.
	bus.PublishSessionClosed(eventbus.SessionClosedPayload{})
	bus.PublishSessionClosed(eventbus.SessionClosedPayload{})

	assert.Equal(t, int32(1), published.Load())
	assert.Equal(t, int32(1), dropped.Load())
}

func TestEventBus_OnSubscribe(t *testing.T) {
	bus := eventbus.New(1)

	var seen []eventbus.Event
	bus.OnSubscribe(func(e eventbus.Event) { seen = append(seen, e) })
	bus.SubscribeStatusPosted(func(eventbus.StatusPostedPayload) {})

	assert.Equal(t, []eventbus.Event{eventbus.EventStatusPosted}, seen)
}

func TestRegisterDebugLogger(t *testing.T) {
	tb := testbus.New(t)

	// Register with a nop logger; verifies no panic.
	eventbus.RegisterDebugLogger(tb.EventBus, zerolog.Nop())

	tb.PublishSessionStarted(eventbus.SessionStartedPayload{SessionID: "test", UserID: "42"})
	tb.PublishInboxChanged(eventbus.InboxChangedPayload{UserID: "42"})

	tb.AssertPublished(t, eventbus.EventInboxChanged)
}
