// Package notify defines the notification domain types shared by the inbox
// subsystem and its collaborators.
package notify

import (
	"encoding/json"
	"fmt"
	"time"
)

// RelatedType identifies the kind of entity a notification points at.
// The set is closed; decoding an unknown value is an error.
type RelatedType int

const (
	RelatedNone RelatedType = iota
	RelatedBoard
	RelatedMissingPet
	RelatedCareRequest
)

// String returns the wire form of the related type.
func (t RelatedType) String() string {
	switch t {
	case RelatedNone:
		return "NONE"
	case RelatedBoard:
		return "BOARD"
	case RelatedMissingPet:
		return "MISSING_PET"
	case RelatedCareRequest:
		return "CARE_REQUEST"
	default:
		return fmt.Sprintf("RelatedType(%d)", int(t))
	}
}

// ParseRelatedType converts a wire value into a RelatedType. An empty string
// maps to RelatedNone.
func ParseRelatedType(s string) (RelatedType, error) {
	switch s {
	case "", "NONE":
		return RelatedNone, nil
	case "BOARD":
		return RelatedBoard, nil
	case "MISSING_PET":
		return RelatedMissingPet, nil
	case "CARE_REQUEST":
		return RelatedCareRequest, nil
	default:
		return RelatedNone, fmt.Errorf("unknown related type %q", s)
	}
}

func (t RelatedType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *RelatedType) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = RelatedNone
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("related type: %w", err)
	}

	parsed, err := ParseRelatedType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Notification is a single user-facing notification as delivered by the server.
type Notification struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Body        string      `json:"body"`
	CreatedAt   time.Time   `json:"createdAt"`
	IsRead      bool        `json:"isRead"`
	RelatedType RelatedType `json:"relatedType"`
	RelatedID   *int64      `json:"relatedId,omitempty"`
}

// Route returns the UI navigation target for the notification. The second
// value is false when the notification does not point at anything.
func (n Notification) Route() (string, bool) {
	if n.RelatedID == nil {
		return "", false
	}

	id := *n.RelatedID
	switch n.RelatedType {
	case RelatedNone:
		return "", false
	case RelatedBoard:
		return fmt.Sprintf("/boards/%d", id), true
	case RelatedMissingPet:
		return fmt.Sprintf("/missing-pets/%d", id), true
	case RelatedCareRequest:
		return fmt.Sprintf("/care-requests/%d", id), true
	default:
		panic(fmt.Sprintf("notify: unhandled related type %d", int(n.RelatedType)))
	}
}

// Decode parses a single JSON-encoded notification. Failures are returned as
// *ParseError.
func Decode(data []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return Notification{}, &ParseError{Payload: string(data), Err: err}
	}
	if n.ID == 0 {
		return Notification{}, &ParseError{Payload: string(data), Err: fmt.Errorf("missing id")}
	}
	return n, nil
}
