package notify

import "context"

// EventNotification is the push event name that carries a Notification.
const EventNotification = "notification"

// PushHandler receives callbacks from a push channel.
type PushHandler interface {
	OnOpen()
	OnMessage(event string, data []byte)
	OnError(err error)
}

// PushSource opens push channels. Subscribe blocks for the lifetime of the
// channel and returns when ctx is cancelled or the channel fails. Every failure
// other than cancellation is reported through OnError before returning.
type PushSource interface {
	Subscribe(ctx context.Context, userID, credential string, h PushHandler)
}

// API is the REST collaborator holding the authoritative notification state.
type API interface {
	FetchList(ctx context.Context, userID string) ([]Notification, error)
	FetchUnreadCount(ctx context.Context, userID string) (int, error)
	ConfirmRead(ctx context.Context, notificationID int64, userID string) error
	ConfirmReadAll(ctx context.Context, userID string) error
}
