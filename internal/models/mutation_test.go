package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input    string
		expected Kind
		ok       bool
	}{
		{"issue.activity.created", Kind{EntityIssue, VerbCreated}, true},
		{"issue.activity.updated", Kind{EntityIssue, VerbUpdated}, true},
		{"issue.activity.deleted", Kind{EntityIssue, VerbDeleted}, true},
		{"comment.activity.updated", Kind{EntityComment, VerbUpdated}, true},
		{"link.activity.deleted", Kind{EntityLink, VerbDeleted}, true},
		{"attachment.activity.created", Kind{EntityAttachment, VerbCreated}, true},

		{"", Kind{}, false},
		{"issue.activity", Kind{}, false},
		{"issue.event.created", Kind{}, false},
		{"cycle.activity.created", Kind{}, false},
		{"issue.activity.archived", Kind{}, false},
		{"issue.activity.created.extra", Kind{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			kind, ok := ParseKind(tt.input)
			if ok != tt.ok || kind != tt.expected {
				t.Errorf("ParseKind(%q) = %v, %v, want %v, %v", tt.input, kind, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestKindStringRoundTrip(t *testing.T) {
	for _, entity := range []Entity{EntityIssue, EntityComment, EntityLink, EntityAttachment} {
		for _, verb := range []Verb{VerbCreated, VerbUpdated, VerbDeleted} {
			kind := Kind{Entity: entity, Verb: verb}
			parsed, ok := ParseKind(kind.String())
			if !ok || parsed != kind {
				t.Errorf("ParseKind(%q) = %v, %v", kind.String(), parsed, ok)
			}
		}
	}
	if (Kind{}).String() != "unknown" {
		t.Errorf("zero kind should render as unknown, got %q", Kind{}.String())
	}
}

func TestMutationEventPayloads(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"absent", ``, ""},
		{"null", `null`, ""},
		{"inline object", `{"name":"a"}`, `{"name":"a"}`},
		{"encoded string", `"{\"name\":\"a\"}"`, `{"name":"a"}`},
		{"encoded null", `"null"`, ""},
		{"empty string", `""`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := MutationEvent{RequestedData: json.RawMessage(tt.raw)}
			got, err := ev.After()
			if err != nil {
				t.Fatalf("After() error: %v", err)
			}
			if string(got) != tt.expected {
				t.Errorf("After() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestMutationEventValidate(t *testing.T) {
	valid := MutationEvent{
		Type:          "issue.activity.created",
		RequestedData: json.RawMessage(`{"name":"a"}`),
		IssueID:       uuid.New(),
		ActorID:       uuid.New(),
		ProjectID:     uuid.New(),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(e *MutationEvent)
	}{
		{"missing issue", func(e *MutationEvent) { e.IssueID = uuid.Nil }},
		{"missing actor", func(e *MutationEvent) { e.ActorID = uuid.Nil }},
		{"missing project", func(e *MutationEvent) { e.ProjectID = uuid.Nil }},
		{"no payloads", func(e *MutationEvent) { e.RequestedData = nil }},
		{"broken string payload", func(e *MutationEvent) { e.RequestedData = json.RawMessage(`"unterminated`) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := valid
			tt.mutate(&ev)
			if err := ev.Validate(); !errors.Is(err, ErrInvalidEvent) {
				t.Errorf("Validate() = %v, want ErrInvalidEvent", err)
			}
		})
	}
}

func TestOptionalPresence(t *testing.T) {
	var payload struct {
		Name     Optional[*string]  `json:"name,omitzero"`
		Priority Optional[*string]  `json:"priority,omitzero"`
		Labels   Optional[[]string] `json:"labels,omitzero"`
	}

	if err := json.Unmarshal([]byte(`{"name":"x","priority":null}`), &payload); err != nil {
		t.Fatal(err)
	}

	if !payload.Name.Set || payload.Name.Value == nil || *payload.Name.Value != "x" {
		t.Errorf("name should be set to x, got %+v", payload.Name)
	}
	if !payload.Priority.Set || payload.Priority.Value != nil {
		t.Errorf("priority should be set to nil, got %+v", payload.Priority)
	}
	if payload.Labels.Set {
		t.Errorf("labels should be absent, got %+v", payload.Labels)
	}

	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"name":"x","priority":null}` {
		t.Errorf("unexpected encoding %s", out)
	}
}
