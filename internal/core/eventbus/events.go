// Package eventbus provides a typed publish/subscribe event bus for
// cross-component communication within inbox.
package eventbus

import (
	"github.com/colonyops/inbox/internal/core/notify"
)

// Event names a bus topic.
type Event string

// Keep list sorted A-Z
const (
	EventConfirmationFailed     Event = "confirmation.failed"
	EventConnectionStateChanged Event = "connection.state-changed"
	EventInboxChanged           Event = "inbox.changed"
	EventRefreshFailed          Event = "refresh.failed"
	EventSessionClosed          Event = "session.closed"
	EventSessionStarted         Event = "session.started"
	EventStatusPosted           Event = "status.posted"
)

// Events maps every event to its payload type. typed.go carries one
// Publish/Subscribe pair per entry; keep both sorted A-Z.
var Events = map[Event]any{
	EventConfirmationFailed:     ConfirmationFailedPayload{},
	EventConnectionStateChanged: ConnectionStateChangedPayload{},
	EventInboxChanged:           InboxChangedPayload{},
	EventRefreshFailed:          RefreshFailedPayload{},
	EventSessionClosed:          SessionClosedPayload{},
	EventSessionStarted:         SessionStartedPayload{},
	EventStatusPosted:           StatusPostedPayload{},
}

// ConfirmationFailedPayload is emitted when the server did not confirm a read.
// NotificationID is zero for a read-all confirmation.
type ConfirmationFailedPayload struct {
	UserID         string
	NotificationID int64
	Err            error
}

// ConnectionStateChangedPayload is emitted on every push channel transition.
type ConnectionStateChangedPayload struct {
	UserID string
	Old    notify.ConnectionState
	New    notify.ConnectionState
}

// InboxChangedPayload is emitted after every effective store mutation.
type InboxChangedPayload struct {
	UserID string
	Reason string
	Unread int
	Len    int
}

// RefreshFailedPayload is emitted when a refresh could not fetch the list and
// the inbox stayed as it was.
type RefreshFailedPayload struct {
	UserID string
	Err    error
}

// SessionStartedPayload is emitted when a session for an identity starts.
type SessionStartedPayload struct {
	SessionID string
	UserID    string
}

// SessionClosedPayload is emitted when a session is torn down.
type SessionClosedPayload struct {
	SessionID string
	UserID    string
}

// StatusPostedPayload carries a user-facing status line.
type StatusPostedPayload struct {
	Level   notify.Level
	Message string
}
