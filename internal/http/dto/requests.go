package dto

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/issue-activity/backend/internal/models"
)

// EnqueueActivityRequest is what the edit API submits after a mutation.
// Payloads may be inline JSON or a JSON-encoded string.
type EnqueueActivityRequest struct {
	Type            string          `json:"type"`
	RequestedData   json.RawMessage `json:"requested_data,omitempty"`
	CurrentInstance json.RawMessage `json:"current_instance,omitempty"`
	IssueID         uuid.UUID       `json:"issue_id"`
	ActorID         uuid.UUID       `json:"actor_id"`
	ProjectID       uuid.UUID       `json:"project_id"`
}

func (r EnqueueActivityRequest) Event() models.MutationEvent {
	return models.MutationEvent{
		Type:            r.Type,
		RequestedData:   r.RequestedData,
		CurrentInstance: r.CurrentInstance,
		IssueID:         r.IssueID,
		ActorID:         r.ActorID,
		ProjectID:       r.ProjectID,
	}
}
