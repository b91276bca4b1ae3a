package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Entity string

// Tracked entities
const (
	EntityIssue      Entity = "issue"
	EntityComment    Entity = "comment"
	EntityLink       Entity = "link"
	EntityAttachment Entity = "attachment"
)

type Verb string

// Mutation verbs
const (
	VerbCreated Verb = "created"
	VerbUpdated Verb = "updated"
	VerbDeleted Verb = "deleted"
)

// Kind identifies a mutation as an (entity, verb) pair.
// The zero Kind stands for anything this service does not know how to track.
type Kind struct {
	Entity Entity
	Verb   Verb
}

func (k Kind) String() string {
	if k.IsZero() {
		return "unknown"
	}
	return fmt.Sprintf("%s.activity.%s", k.Entity, k.Verb)
}

func (k Kind) IsZero() bool {
	return k.Entity == "" && k.Verb == ""
}

// ParseKind parses "<entity>.activity.<verb>". Unknown entities or verbs
// return the zero Kind and false.
func ParseKind(s string) (Kind, bool) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 || parts[1] != "activity" {
		return Kind{}, false
	}

	entity := Entity(parts[0])
	switch entity {
	case EntityIssue, EntityComment, EntityLink, EntityAttachment:
	default:
		return Kind{}, false
	}

	verb := Verb(parts[2])
	switch verb {
	case VerbCreated, VerbUpdated, VerbDeleted:
	default:
		return Kind{}, false
	}

	return Kind{Entity: entity, Verb: verb}, true
}

// MutationEvent is the unit of work placed on the activity queue by the API layer.
// RequestedData is the submitted state, CurrentInstance the state before the
// mutation. Both accept either inline JSON or a JSON-encoded string.
type MutationEvent struct {
	Type            string          `json:"type"`
	RequestedData   json.RawMessage `json:"requested_data,omitempty"`
	CurrentInstance json.RawMessage `json:"current_instance,omitempty"`
	IssueID         uuid.UUID       `json:"issue_id"`
	ActorID         uuid.UUID       `json:"actor_id"`
	ProjectID       uuid.UUID       `json:"project_id"`
	EnqueuedAt      time.Time       `json:"enqueued_at,omitzero"`
}

func (e MutationEvent) Kind() Kind {
	k, _ := ParseKind(e.Type)
	return k
}

// After returns the submitted payload, or nil when it is absent.
func (e MutationEvent) After() ([]byte, error) {
	return unwrapPayload(e.RequestedData)
}

// Before returns the prior snapshot, or nil when it is absent.
func (e MutationEvent) Before() ([]byte, error) {
	return unwrapPayload(e.CurrentInstance)
}

// Validate checks the identifiers every event must carry and that at least
// one of the payloads is present.
func (e MutationEvent) Validate() error {
	switch {
	case e.IssueID == uuid.Nil:
		return fmt.Errorf("%w: issue_id is required", ErrInvalidEvent)
	case e.ActorID == uuid.Nil:
		return fmt.Errorf("%w: actor_id is required", ErrInvalidEvent)
	case e.ProjectID == uuid.Nil:
		return fmt.Errorf("%w: project_id is required", ErrInvalidEvent)
	}

	before, err := e.Before()
	if err != nil {
		return fmt.Errorf("%w: current_instance: %v", ErrInvalidEvent, err)
	}
	after, err := e.After()
	if err != nil {
		return fmt.Errorf("%w: requested_data: %v", ErrInvalidEvent, err)
	}
	if before == nil && after == nil {
		return fmt.Errorf("%w: requested_data and current_instance are both empty", ErrInvalidEvent)
	}
	return nil
}

func unwrapPayload(raw json.RawMessage) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] != '"' {
		return raw, nil
	}

	// Producers that serialize the payload themselves send it as a string.
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return nil, nil
	}
	return []byte(s), nil
}
