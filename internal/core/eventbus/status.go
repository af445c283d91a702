package eventbus

import (
	"fmt"

	"github.com/colonyops/inbox/internal/core/notify"
)

// StatusRouter maps domain events to user-facing status lines.
type StatusRouter struct {
	bus *EventBus
}

// NewStatusRouter constructs a router publishing status.posted events.
func NewStatusRouter(bus *EventBus) *StatusRouter {
	return &StatusRouter{bus: bus}
}

// Register subscribes all supported event mappings.
func (r *StatusRouter) Register() {
	if r == nil || r.bus == nil {
		return
	}

	r.bus.SubscribeConnectionStateChanged(func(p ConnectionStateChangedPayload) {
		switch p.New {
		case notify.StateOpen:
			r.postf(notify.LevelInfo, "live updates connected")
		case notify.StateDegradedPolling:
			r.postf(notify.LevelWarning, "live updates unavailable, refreshing periodically")
		case notify.StateIdle, notify.StateConnecting, notify.StateClosed:
		}
	})

	r.bus.SubscribeConfirmationFailed(func(p ConfirmationFailedPayload) {
		if p.NotificationID == 0 {
			r.postf(notify.LevelWarning, "server did not confirm mark-all-read; it will resync on next refresh")
			return
		}
		r.postf(notify.LevelWarning, "server did not confirm read of #%d; it will resync on next refresh", p.NotificationID)
	})

	r.bus.SubscribeRefreshFailed(func(p RefreshFailedPayload) {
		r.postf(notify.LevelWarning, "could not refresh notifications, showing the last known inbox: %v", p.Err)
	})

	r.bus.SubscribeSessionClosed(func(p SessionClosedPayload) {
		r.postf(notify.LevelInfo, "signed out %s", p.UserID)
	})
}

func (r *StatusRouter) postf(level notify.Level, format string, args ...any) {
	r.bus.PublishStatusPosted(StatusPostedPayload{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}
