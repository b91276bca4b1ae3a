package models

import (
	"time"

	"github.com/google/uuid"
)

// Activity fields
const (
	FieldName          = "name"
	FieldParent        = "parent"
	FieldPriority      = "priority"
	FieldState         = "state"
	FieldDescription   = "description"
	FieldTargetDate    = "target_date"
	FieldStartDate     = "start_date"
	FieldEstimatePoint = "estimate_point"
	FieldLabels        = "labels"
	FieldAssignees     = "assignees"
	FieldBlocks        = "blocks"
	FieldBlocking      = "blocking"
	FieldCycles        = "cycles"
	FieldModules       = "modules"
	FieldIssue         = "issue"
	FieldComment       = "comment"
	FieldLink          = "link"
	FieldAttachment    = "attachment"
)

// IssueActivity is one persisted audit-trail entry. Rows are insert-only.
type IssueActivity struct {
	ID             uuid.UUID  `json:"id"`
	IssueID        uuid.UUID  `json:"issue_id"`
	ProjectID      uuid.UUID  `json:"project_id"`
	WorkspaceID    uuid.UUID  `json:"workspace_id"`
	ActorID        uuid.UUID  `json:"actor_id"`
	Verb           Verb       `json:"verb"`
	Field          *string    `json:"field"`
	OldValue       *string    `json:"old_value"`
	NewValue       *string    `json:"new_value"`
	OldIdentifier  *uuid.UUID `json:"old_identifier"`
	NewIdentifier  *uuid.UUID `json:"new_identifier"`
	Comment        string     `json:"comment"`
	IssueCommentID *uuid.UUID `json:"issue_comment_id"`
	CreatedAt      time.Time  `json:"created_at"`
}
