package notify

import (
	"errors"
	"fmt"
)

// ErrNotInitialized is returned by store operations performed before the store
// is bound to an active identity, or after the owning session was closed.
var ErrNotInitialized = errors.New("notification store not initialized")

// ConnectionError reports a push channel open or transport failure.
type ConnectionError struct {
	UserID string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("push channel for user %s: %v", e.UserID, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ParseError reports a notification payload that does not decode, whether it
// arrived pushed or inside a fetched list.
type ParseError struct {
	Payload string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed notification payload: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConfirmationError reports a failed read confirmation. NotificationID is zero
// for a mark-all confirmation.
type ConfirmationError struct {
	NotificationID int64
	Err            error
}

func (e *ConfirmationError) Error() string {
	if e.NotificationID == 0 {
		return fmt.Sprintf("confirm read-all: %v", e.Err)
	}
	return fmt.Sprintf("confirm read %d: %v", e.NotificationID, e.Err)
}

func (e *ConfirmationError) Unwrap() error { return e.Err }

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsConfirmationError reports whether err is or wraps a *ConfirmationError.
func IsConfirmationError(err error) bool {
	var ce *ConfirmationError
	return errors.As(err, &ce)
}
