package activity

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/issue-activity/backend/internal/models"
)

// IssueSnapshot is the state of an issue before an edit, as captured by the API layer.
type IssueSnapshot struct {
	Name            *string     `json:"name"`
	Parent          *uuid.UUID  `json:"parent"`
	Priority        *string     `json:"priority"`
	State           *uuid.UUID  `json:"state"`
	DescriptionHTML *string     `json:"description_html"`
	TargetDate      *string     `json:"target_date"`
	StartDate       *string     `json:"start_date"`
	EstimatePoint   *int        `json:"estimate_point"`
	Labels          []uuid.UUID `json:"labels"`
	Assignees       []uuid.UUID `json:"assignees"`

	BlockedIssues []BlockRef   `json:"blocked_issues"`
	BlockerIssues []BlockerRef `json:"blocker_issues"`

	// Cycle and module changes are classified by the caller, which knows
	// whether an issue's slot was replaced or newly filled.
	UpdatedCycleIssues  []CycleMove        `json:"updated_cycle_issues"`
	CreatedCycleIssues  []CycleAssignment  `json:"created_cycle_issues"`
	UpdatedModuleIssues []ModuleMove       `json:"updated_module_issues"`
	CreatedModuleIssues []ModuleAssignment `json:"created_module_issues"`
}

// BlockRef is an issue this issue blocks.
type BlockRef struct {
	Block uuid.UUID `json:"block"`
}

// BlockerRef is an issue this issue is blocked by.
type BlockerRef struct {
	BlockedBy uuid.UUID `json:"blocked_by"`
}

type CycleMove struct {
	IssueID    uuid.UUID  `json:"issue_id"`
	OldCycleID *uuid.UUID `json:"old_cycle_id"`
	NewCycleID *uuid.UUID `json:"new_cycle_id"`
}

// CycleAssignment also decodes from a serialized row,
// {"fields":{"cycle":...,"issue":...}}.
type CycleAssignment struct {
	IssueID uuid.UUID `json:"issue_id"`
	CycleID uuid.UUID `json:"cycle_id"`
}

func (a *CycleAssignment) UnmarshalJSON(data []byte) error {
	var row struct {
		IssueID uuid.UUID `json:"issue_id"`
		CycleID uuid.UUID `json:"cycle_id"`
		Fields  *struct {
			Issue uuid.UUID `json:"issue"`
			Cycle uuid.UUID `json:"cycle"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(data, &row); err != nil {
		return err
	}
	if row.Fields != nil {
		row.IssueID, row.CycleID = row.Fields.Issue, row.Fields.Cycle
	}
	*a = CycleAssignment{IssueID: row.IssueID, CycleID: row.CycleID}
	return nil
}

type ModuleMove struct {
	IssueID     uuid.UUID  `json:"issue_id"`
	OldModuleID *uuid.UUID `json:"old_module_id"`
	NewModuleID *uuid.UUID `json:"new_module_id"`
}

type ModuleAssignment struct {
	IssueID  uuid.UUID `json:"issue_id"`
	ModuleID uuid.UUID `json:"module_id"`
}

func (a *ModuleAssignment) UnmarshalJSON(data []byte) error {
	var row struct {
		IssueID  uuid.UUID `json:"issue_id"`
		ModuleID uuid.UUID `json:"module_id"`
		Fields   *struct {
			Issue  uuid.UUID `json:"issue"`
			Module uuid.UUID `json:"module"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(data, &row); err != nil {
		return err
	}
	if row.Fields != nil {
		row.IssueID, row.ModuleID = row.Fields.Issue, row.Fields.Module
	}
	*a = ModuleAssignment{IssueID: row.IssueID, ModuleID: row.ModuleID}
	return nil
}

// IssueUpdate is the submitted edit. Only keys present in the request are Set;
// an absent key means the field was not part of the edit.
type IssueUpdate struct {
	Name            models.Optional[*string]     `json:"name,omitzero"`
	Parent          models.Optional[*uuid.UUID]  `json:"parent,omitzero"`
	Priority        models.Optional[*string]     `json:"priority,omitzero"`
	State           models.Optional[*uuid.UUID]  `json:"state,omitzero"`
	DescriptionHTML models.Optional[*string]     `json:"description_html,omitzero"`
	TargetDate      models.Optional[*string]     `json:"target_date,omitzero"`
	StartDate       models.Optional[*string]     `json:"start_date,omitzero"`
	EstimatePoint   models.Optional[*int]        `json:"estimate_point,omitzero"`
	Labels          models.Optional[[]uuid.UUID] `json:"labels_list,omitzero"`
	Assignees       models.Optional[[]uuid.UUID] `json:"assignees_list,omitzero"`
	Blocks          models.Optional[[]uuid.UUID] `json:"blocks_list,omitzero"`
	Blockers        models.Optional[[]uuid.UUID] `json:"blockers_list,omitzero"`
	Cycles          models.Optional[[]uuid.UUID] `json:"cycles_list,omitzero"`
	Modules         models.Optional[[]uuid.UUID] `json:"modules_list,omitzero"`
}

type Comment struct {
	ID          uuid.UUID `json:"id"`
	CommentHTML string    `json:"comment_html"`
}

type Link struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	URL   string    `json:"url"`
}

type Attachment struct {
	ID    uuid.UUID `json:"id"`
	Asset string    `json:"asset"`
}
