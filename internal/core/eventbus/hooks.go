package eventbus

import (
	"slices"
	"sync"
)

// hooks holds lifecycle observers for the EventBus, kept apart from the typed
// Publish/Subscribe pairs.
type hooks struct {
	mu          sync.RWMutex
	onPublish   []func(Event, any)
	onDrop      []func(Event, any)
	onSubscribe []func(Event)
	onPanic     []func(Event, any, any)
}

// OnPublish registers a hook that fires after an event is enqueued.
func (bus *EventBus) OnPublish(fn func(Event, any)) {
	bus.hooks.mu.Lock()
	defer bus.hooks.mu.Unlock()
	bus.hooks.onPublish = append(bus.hooks.onPublish, fn)
}

// OnDrop registers a hook that fires when the buffer is full and an event is lost.
func (bus *EventBus) OnDrop(fn func(Event, any)) {
	bus.hooks.mu.Lock()
	defer bus.hooks.mu.Unlock()
	bus.hooks.onDrop = append(bus.hooks.onDrop, fn)
}

// OnSubscribe registers a hook that fires after a subscriber is added.
func (bus *EventBus) OnSubscribe(fn func(Event)) {
	bus.hooks.mu.Lock()
	defer bus.hooks.mu.Unlock()
	bus.hooks.onSubscribe = append(bus.hooks.onSubscribe, fn)
}

// OnPanic registers a hook that fires when a subscriber panics. The third
// argument is the recovered value.
func (bus *EventBus) OnPanic(fn func(Event, any, any)) {
	bus.hooks.mu.Lock()
	defer bus.hooks.mu.Unlock()
	bus.hooks.onPanic = append(bus.hooks.onPanic, fn)
}

// send enqueues an event without blocking. Used by the typed Publish methods.
func (bus *EventBus) send(event Event, payload any) {
	select {
	case bus.ch <- envelope{event: event, payload: payload}:
		for _, fn := range bus.hooks.published() {
			fn(event, payload)
		}
	default:
		for _, fn := range bus.hooks.dropped() {
			fn(event, payload)
		}
	}
}

func (bus *EventBus) runOnSubscribe(event Event) {
	for _, fn := range bus.hooks.subscribed() {
		fn(event)
	}
}

func (bus *EventBus) runOnPanic(event Event, payload any, recovered any) {
	for _, fn := range bus.hooks.panicked() {
		func() {
			defer func() { recover() }() //nolint:errcheck
			fn(event, payload, recovered)
		}()
	}
}

func (h *hooks) published() []func(Event, any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.onPublish)
}

func (h *hooks) dropped() []func(Event, any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.onDrop)
}

func (h *hooks) subscribed() []func(Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.onSubscribe)
}

func (h *hooks) panicked() []func(Event, any, any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.onPanic)
}
