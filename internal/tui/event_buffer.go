package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/inbox/internal/core/eventbus"
)

// drainEventsMsg tells the model that bus events are waiting in the buffer.
type drainEventsMsg struct{}

// EventBuffer collects bus events published from other goroutines and hands
// them to the Bubble Tea loop with coalesced drain signals.
type EventBuffer struct {
	mu     sync.Mutex
	events []any
	signal chan struct{}
}

// NewEventBuffer constructs a buffer for async event delivery.
func NewEventBuffer() *EventBuffer {
	return &EventBuffer{
		events: make([]any, 0),
		signal: make(chan struct{}, 1),
	}
}

// Attach subscribes the buffer to the bus events the TUI renders.
func (b *EventBuffer) Attach(bus *eventbus.EventBus) {
	bus.SubscribeInboxChanged(func(p eventbus.InboxChangedPayload) { b.Push(p) })
	bus.SubscribeConnectionStateChanged(func(p eventbus.ConnectionStateChangedPayload) { b.Push(p) })
	bus.SubscribeStatusPosted(func(p eventbus.StatusPostedPayload) { b.Push(p) })
}

// Push appends an event and emits a non-blocking drain signal.
func (b *EventBuffer) Push(ev any) {
	b.mu.Lock()
	b.events = append(b.events, ev)
	b.mu.Unlock()

	select {
	case b.signal <- struct{}{}:
	default:
	}
}

// Drain returns all buffered events and clears the buffer.
func (b *EventBuffer) Drain() []any {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.events) == 0 {
		return nil
	}

	out := make([]any, len(b.events))
	copy(out, b.events)
	b.events = b.events[:0]
	return out
}

// WaitForSignal blocks until there are events ready to drain.
func (b *EventBuffer) WaitForSignal() tea.Cmd {
	return func() tea.Msg {
		<-b.signal
		return drainEventsMsg{}
	}
}
