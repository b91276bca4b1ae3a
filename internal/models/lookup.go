package models

import (
	"fmt"

	"github.com/google/uuid"
)

type Actor struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

type Project struct {
	ID          uuid.UUID `json:"id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	Identifier  string    `json:"identifier"`
}

// IssueKey renders an issue sequence number the way users see it, e.g. "WEB-42".
func (p Project) IssueKey(sequenceID int) string {
	return fmt.Sprintf("%s-%d", p.Identifier, sequenceID)
}

type IssueRef struct {
	ID         uuid.UUID `json:"id"`
	SequenceID int       `json:"sequence_id"`
	Name       string    `json:"name"`
}
