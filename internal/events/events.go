package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// Event types
const (
	EventIssueActivity = "issue_activity"
)

// Default Redis keys
const (
	DefaultActivityChannel = "events:activity"
	DefaultQueueKey        = "activity:mutations"
)

// Event is a live-feed message. IssueID lets subscribers route it without
// decoding the payload.
type Event struct {
	Type    string          `json:"type"`
	IssueID uuid.UUID       `json:"issue_id"`
	Payload json.RawMessage `json:"payload"`
}

func NewEvent(eventType string, issueID uuid.UUID, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, IssueID: issueID, Payload: data}, nil
}

type Publisher interface {
	Publish(ctx context.Context, channel string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler func(Event)) error
}
