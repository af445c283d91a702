// Typed wrappers over send and subscribe, one Publish/Subscribe pair per
// entry in Events. Maintained by hand; TestEvents_haveTypedWrappers fails when
// an event is added without its pair.

package eventbus

// PublishConfirmationFailed enqueues a confirmation.failed event.
func (bus *EventBus) PublishConfirmationFailed(p ConfirmationFailedPayload) {
	bus.send(EventConfirmationFailed, p)
}

// SubscribeConfirmationFailed registers a handler for confirmation.failed.
func (bus *EventBus) SubscribeConfirmationFailed(fn func(ConfirmationFailedPayload)) {
	bus.subscribe(EventConfirmationFailed, func(p any) { fn(p.(ConfirmationFailedPayload)) })
}

// PublishConnectionStateChanged enqueues a connection.state-changed event.
func (bus *EventBus) PublishConnectionStateChanged(p ConnectionStateChangedPayload) {
	bus.send(EventConnectionStateChanged, p)
}

// SubscribeConnectionStateChanged registers a handler for connection.state-changed.
func (bus *EventBus) SubscribeConnectionStateChanged(fn func(ConnectionStateChangedPayload)) {
	bus.subscribe(EventConnectionStateChanged, func(p any) { fn(p.(ConnectionStateChangedPayload)) })
}

// PublishInboxChanged enqueues an inbox.changed event.
func (bus *EventBus) PublishInboxChanged(p InboxChangedPayload) {
	bus.send(EventInboxChanged, p)
}

// SubscribeInboxChanged registers a handler for inbox.changed.
func (bus *EventBus) SubscribeInboxChanged(fn func(InboxChangedPayload)) {
	bus.subscribe(EventInboxChanged, func(p any) { fn(p.(InboxChangedPayload)) })
}

// PublishRefreshFailed enqueues a refresh.failed event.
func (bus *EventBus) PublishRefreshFailed(p RefreshFailedPayload) {
	bus.send(EventRefreshFailed, p)
}

// SubscribeRefreshFailed registers a handler for refresh.failed.
func (bus *EventBus) SubscribeRefreshFailed(fn func(RefreshFailedPayload)) {
	bus.subscribe(EventRefreshFailed, func(p any) { fn(p.(RefreshFailedPayload)) })
}

// PublishSessionClosed enqueues a session.closed event.
func (bus *EventBus) PublishSessionClosed(p SessionClosedPayload) {
	bus.send(EventSessionClosed, p)
}

// SubscribeSessionClosed registers a handler for session.closed.
func (bus *EventBus) SubscribeSessionClosed(fn func(SessionClosedPayload)) {
	bus.subscribe(EventSessionClosed, func(p any) { fn(p.(SessionClosedPayload)) })
}

// PublishSessionStarted enqueues a session.started event.
func (bus *EventBus) PublishSessionStarted(p SessionStartedPayload) {
	bus.send(EventSessionStarted, p)
}

// SubscribeSessionStarted registers a handler for session.started.
func (bus *EventBus) SubscribeSessionStarted(fn func(SessionStartedPayload)) {
	bus.subscribe(EventSessionStarted, func(p any) { fn(p.(SessionStartedPayload)) })
}

// PublishStatusPosted enqueues a status.posted event.
func (bus *EventBus) PublishStatusPosted(p StatusPostedPayload) {
	bus.send(EventStatusPosted, p)
}

// SubscribeStatusPosted registers a handler for status.posted.
func (bus *EventBus) SubscribeStatusPosted(fn func(StatusPostedPayload)) {
	bus.subscribe(EventStatusPosted, func(p any) { fn(p.(StatusPostedPayload)) })
}
