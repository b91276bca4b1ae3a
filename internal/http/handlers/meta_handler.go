package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/issue-activity/backend/internal/http/dto"
	"github.com/issue-activity/backend/internal/models"
)

// MetaHandler describes what the service tracks so clients can render
// history filters without hard-coding them.
type MetaHandler struct{}

func NewMetaHandler() *MetaHandler {
	return &MetaHandler{}
}

type MetaField struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var trackedFields = []MetaField{
	{ID: models.FieldName, Label: "Name"},
	{ID: models.FieldParent, Label: "Parent issue"},
	{ID: models.FieldPriority, Label: "Priority"},
	{ID: models.FieldState, Label: "State"},
	{ID: models.FieldDescription, Label: "Description"},
	{ID: models.FieldTargetDate, Label: "Target date"},
	{ID: models.FieldStartDate, Label: "Start date"},
	{ID: models.FieldEstimatePoint, Label: "Estimate point"},
	{ID: models.FieldLabels, Label: "Labels"},
	{ID: models.FieldAssignees, Label: "Assignees"},
	{ID: models.FieldBlocks, Label: "Blocking"},
	{ID: models.FieldBlocking, Label: "Blocked by"},
	{ID: models.FieldCycles, Label: "Cycle"},
	{ID: models.FieldModules, Label: "Module"},
	{ID: models.FieldIssue, Label: "Issue"},
	{ID: models.FieldComment, Label: "Comment"},
	{ID: models.FieldLink, Label: "Link"},
	{ID: models.FieldAttachment, Label: "Attachment"},
}

func (h *MetaHandler) GetFields(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: trackedFields})
}

// GetEventTypes lists every event type that produces activity.
func (h *MetaHandler) GetEventTypes(c *fiber.Ctx) error {
	entities := []models.Entity{models.EntityIssue, models.EntityComment, models.EntityLink, models.EntityAttachment}
	verbs := []models.Verb{models.VerbCreated, models.VerbUpdated, models.VerbDeleted}

	types := make([]string, 0, len(entities)*len(verbs))
	for _, e := range entities {
		for _, v := range verbs {
			types = append(types, models.Kind{Entity: e, Verb: v}.String())
		}
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: types})
}
