package activity

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/issue-activity/backend/internal/models"
)

// Mutation is a decoded mutation event. Every tracked (entity, verb) pair has
// its own variant, and each variant knows which comparators apply to it.
type Mutation interface {
	Kind() models.Kind
	track(ctx context.Context, c *Context) ([]models.IssueActivity, error)
}

// Dispatch runs the comparators for m and returns the drafted records in
// emission order. A nil Mutation (an event kind this service does not track)
// yields no records.
func Dispatch(ctx context.Context, c *Context, m Mutation) ([]models.IssueActivity, error) {
	if m == nil {
		return nil, nil
	}
	return m.track(ctx, c)
}

type IssueCreated struct{}

// IssueUpdated carries the keys of either payload that could not be read.
// Fields that depend on them are not compared.
type IssueUpdated struct {
	Before IssueSnapshot
	After  IssueUpdate

	SkippedBefore []string
	SkippedAfter  []string
}

type IssueDeleted struct{}

type CommentCreated struct{ After Comment }

type CommentUpdated struct{ Before, After Comment }

type CommentDeleted struct{ Before *Comment }

type LinkCreated struct{ After Link }

type LinkUpdated struct{ Before, After Link }

type LinkDeleted struct{ Before *Link }

type AttachmentCreated struct{ After Attachment }

type AttachmentUpdated struct{ Before, After Attachment }

type AttachmentDeleted struct{ Before *Attachment }

func (IssueCreated) Kind() models.Kind { return models.Kind{Entity: models.EntityIssue, Verb: models.VerbCreated} }
func (IssueUpdated) Kind() models.Kind { return models.Kind{Entity: models.EntityIssue, Verb: models.VerbUpdated} }
func (IssueDeleted) Kind() models.Kind { return models.Kind{Entity: models.EntityIssue, Verb: models.VerbDeleted} }
func (CommentCreated) Kind() models.Kind { return models.Kind{Entity: models.EntityComment, Verb: models.VerbCreated} }
func (CommentUpdated) Kind() models.Kind { return models.Kind{Entity: models.EntityComment, Verb: models.VerbUpdated} }
func (CommentDeleted) Kind() models.Kind { return models.Kind{Entity: models.EntityComment, Verb: models.VerbDeleted} }
func (LinkCreated) Kind() models.Kind { return models.Kind{Entity: models.EntityLink, Verb: models.VerbCreated} }
func (LinkUpdated) Kind() models.Kind { return models.Kind{Entity: models.EntityLink, Verb: models.VerbUpdated} }
func (LinkDeleted) Kind() models.Kind { return models.Kind{Entity: models.EntityLink, Verb: models.VerbDeleted} }
func (AttachmentCreated) Kind() models.Kind { return models.Kind{Entity: models.EntityAttachment, Verb: models.VerbCreated} }
func (AttachmentUpdated) Kind() models.Kind { return models.Kind{Entity: models.EntityAttachment, Verb: models.VerbUpdated} }
func (AttachmentDeleted) Kind() models.Kind { return models.Kind{Entity: models.EntityAttachment, Verb: models.VerbDeleted} }

func (IssueCreated) track(_ context.Context, c *Context) ([]models.IssueActivity, error) {
	a := c.record(models.VerbCreated, "")
	a.Comment = c.say("created the issue")
	return []models.IssueActivity{a}, nil
}

func (IssueDeleted) track(_ context.Context, c *Context) ([]models.IssueActivity, error) {
	a := c.record(models.VerbDeleted, models.FieldIssue)
	a.Comment = c.say("deleted the issue")
	return []models.IssueActivity{a}, nil
}

// issueField binds a submitted key to its comparator. The comparator only runs
// when the key was present in the edit. from lists the snapshot keys it reads.
type issueField struct {
	key     string
	from    []string
	present func(u IssueUpdate) bool
	track   func(ctx context.Context, c *Context, s IssueSnapshot, u IssueUpdate) ([]models.IssueActivity, error)
}

func scalar(f func(c *Context, s IssueSnapshot, u IssueUpdate) []models.IssueActivity) func(context.Context, *Context, IssueSnapshot, IssueUpdate) ([]models.IssueActivity, error) {
	return func(_ context.Context, c *Context, s IssueSnapshot, u IssueUpdate) ([]models.IssueActivity, error) {
		return f(c, s, u), nil
	}
}

var issueFields = []issueField{
	{
		key:     "name",
		from:    []string{"name"},
		present: func(u IssueUpdate) bool { return u.Name.Set },
		track: scalar(func(c *Context, s IssueSnapshot, u IssueUpdate) []models.IssueActivity {
			return trackScalar(c, models.FieldName, "name", s.Name, u.Name.Value)
		}),
	},
	{
		key:     "parent",
		from:    []string{"parent"},
		present: func(u IssueUpdate) bool { return u.Parent.Set },
		track: func(ctx context.Context, c *Context, s IssueSnapshot, u IssueUpdate) ([]models.IssueActivity, error) {
			return trackParent(ctx, c, s.Parent, u.Parent.Value)
		},
	},
	{
		key:     "priority",
		from:    []string{"priority"},
		present: func(u IssueUpdate) bool { return u.Priority.Set },
		track: scalar(func(c *Context, s IssueSnapshot, u IssueUpdate) []models.IssueActivity {
			return trackScalar(c, models.FieldPriority, "priority", s.Priority, u.Priority.Value)
		}),
	},
	{
		key:     "state",
		from:    []string{"state"},
		present: func(u IssueUpdate) bool { return u.State.Set },
		track: func(ctx context.Context, c *Context, s IssueSnapshot, u IssueUpdate) ([]models.IssueActivity, error) {
			return trackState(ctx, c, s.State, u.State.Value)
		},
	},
	{
		key:     "description_html",
		from:    []string{"description_html"},
		present: func(u IssueUpdate) bool { return u.DescriptionHTML.Set },
		track: scalar(func(c *Context, s IssueSnapshot, u IssueUpdate) []models.IssueActivity {
			return trackScalar(c, models.FieldDescription, "description", s.DescriptionHTML, u.DescriptionHTML.Value)
		}),
	},
	{
		key:     "target_date",
		from:    []string{"target_date"},
		present: func(u IssueUpdate) bool { return u.TargetDate.Set },
		track: scalar(func(c *Context, s IssueSnapshot, u IssueUpdate) []models.IssueActivity {
			return trackScalar(c, models.FieldTargetDate, "target date", s.TargetDate, u.TargetDate.Value)
		}),
	},
	{
		key:     "start_date",
		from:    []string{"start_date"},
		present: func(u IssueUpdate) bool { return u.StartDate.Set },
		track: scalar(func(c *Context, s IssueSnapshot, u IssueUpdate) []models.IssueActivity {
			return trackScalar(c, models.FieldStartDate, "start date", s.StartDate, u.StartDate.Value)
		}),
	},
	{
		key:     "labels_list",
		from:    []string{"labels"},
		present: func(u IssueUpdate) bool { return u.Labels.Set },
		track: func(ctx context.Context, c *Context, s IssueSnapshot, u IssueUpdate) ([]models.IssueActivity, error) {
			return labelSet.track(ctx, c, s.Labels, u.Labels.Value)
		},
	},
	{
		key:     "assignees_list",
		from:    []string{"assignees"},
		present: func(u IssueUpdate) bool { return u.Assignees.Set },
		track: func(ctx context.Context, c *Context, s IssueSnapshot, u IssueUpdate) ([]models.IssueActivity, error) {
			return assigneeSet.track(ctx, c, s.Assignees, u.Assignees.Value)
		},
	},
	{
		key:     "blocks_list",
		from:    []string{"blocked_issues"},
		present: func(u IssueUpdate) bool { return u.Blocks.Set },
		track: func(ctx context.Context, c *Context, s IssueSnapshot, u IssueUpdate) ([]models.IssueActivity, error) {
			return blocksSet.track(ctx, c, s.blockedIDs(), u.Blocks.Value)
		},
	},
	{
		key:     "blockers_list",
		from:    []string{"blocker_issues"},
		present: func(u IssueUpdate) bool { return u.Blockers.Set },
		track: func(ctx context.Context, c *Context, s IssueSnapshot, u IssueUpdate) ([]models.IssueActivity, error) {
			return blockingSet.track(ctx, c, s.blockerIDs(), u.Blockers.Value)
		},
	},
	{
		key:     "cycles_list",
		from:    []string{"updated_cycle_issues", "created_cycle_issues"},
		present: func(u IssueUpdate) bool { return u.Cycles.Set },
		track: func(ctx context.Context, c *Context, s IssueSnapshot, _ IssueUpdate) ([]models.IssueActivity, error) {
			moves, adds := s.cycleChanges()
			return cycleMembership.track(ctx, c, moves, adds)
		},
	},
	{
		key:     "modules_list",
		from:    []string{"updated_module_issues", "created_module_issues"},
		present: func(u IssueUpdate) bool { return u.Modules.Set },
		track: func(ctx context.Context, c *Context, s IssueSnapshot, _ IssueUpdate) ([]models.IssueActivity, error) {
			moves, adds := s.moduleChanges()
			return moduleMembership.track(ctx, c, moves, adds)
		},
	},
	{
		key:     "estimate_point",
		from:    []string{"estimate_point"},
		present: func(u IssueUpdate) bool { return u.EstimatePoint.Set },
		track: scalar(func(c *Context, s IssueSnapshot, u IssueUpdate) []models.IssueActivity {
			return trackEstimatePoint(c, s.EstimatePoint, u.EstimatePoint.Value)
		}),
	},
}

func (m IssueUpdated) track(ctx context.Context, c *Context) ([]models.IssueActivity, error) {
	var out []models.IssueActivity
	for _, f := range issueFields {
		if !f.present(m.After) || m.unreadable(f) {
			continue
		}
		records, err := f.track(ctx, c, m.Before, m.After)
		if err != nil {
			return nil, fmt.Errorf("track %s: %w", f.key, err)
		}
		out = append(out, records...)
	}
	return out, nil
}

func (m IssueUpdated) unreadable(f issueField) bool {
	for _, key := range f.from {
		if slices.Contains(m.SkippedBefore, key) {
			return true
		}
	}
	return false
}

func (m CommentCreated) track(_ context.Context, c *Context) ([]models.IssueActivity, error) {
	a := c.record(models.VerbCreated, models.FieldComment)
	a.NewValue = &m.After.CommentHTML
	a.NewIdentifier = nonNil(m.After.ID)
	a.IssueCommentID = nonNil(m.After.ID)
	a.Comment = c.say("created a comment")
	return []models.IssueActivity{a}, nil
}

func (m CommentUpdated) track(_ context.Context, c *Context) ([]models.IssueActivity, error) {
	if m.Before.CommentHTML == m.After.CommentHTML {
		return nil, nil
	}
	a := c.record(models.VerbUpdated, models.FieldComment)
	a.OldValue = &m.Before.CommentHTML
	a.NewValue = &m.After.CommentHTML
	a.OldIdentifier = nonNil(m.Before.ID)
	a.NewIdentifier = nonNil(m.Before.ID)
	a.IssueCommentID = nonNil(m.Before.ID)
	a.Comment = c.say("updated a comment")
	return []models.IssueActivity{a}, nil
}

func (m CommentDeleted) track(_ context.Context, c *Context) ([]models.IssueActivity, error) {
	a := c.record(models.VerbDeleted, models.FieldComment)
	if m.Before != nil {
		a.OldIdentifier = nonNil(m.Before.ID)
	}
	a.Comment = c.say("deleted the comment")
	return []models.IssueActivity{a}, nil
}

func (m LinkCreated) track(_ context.Context, c *Context) ([]models.IssueActivity, error) {
	a := c.record(models.VerbCreated, models.FieldLink)
	a.NewValue = &m.After.URL
	a.NewIdentifier = nonNil(m.After.ID)
	a.Comment = c.say("created a link")
	return []models.IssueActivity{a}, nil
}

func (m LinkUpdated) track(_ context.Context, c *Context) ([]models.IssueActivity, error) {
	if m.Before.URL == m.After.URL {
		return nil, nil
	}
	a := c.record(models.VerbUpdated, models.FieldLink)
	a.OldValue = &m.Before.URL
	a.NewValue = &m.After.URL
	a.OldIdentifier = nonNil(m.Before.ID)
	a.NewIdentifier = nonNil(m.Before.ID)
	a.Comment = c.say("updated a link")
	return []models.IssueActivity{a}, nil
}

func (m LinkDeleted) track(_ context.Context, c *Context) ([]models.IssueActivity, error) {
	a := c.record(models.VerbDeleted, models.FieldLink)
	if m.Before != nil {
		a.OldIdentifier = nonNil(m.Before.ID)
	}
	a.Comment = c.say("deleted the link")
	return []models.IssueActivity{a}, nil
}

func (m AttachmentCreated) track(_ context.Context, c *Context) ([]models.IssueActivity, error) {
	a := c.record(models.VerbCreated, models.FieldAttachment)
	a.NewValue = &m.After.Asset
	a.NewIdentifier = nonNil(m.After.ID)
	a.Comment = c.say("created an attachment")
	return []models.IssueActivity{a}, nil
}

func (m AttachmentUpdated) track(_ context.Context, c *Context) ([]models.IssueActivity, error) {
	if m.Before.Asset == m.After.Asset {
		return nil, nil
	}
	a := c.record(models.VerbUpdated, models.FieldAttachment)
	a.OldValue = &m.Before.Asset
	a.NewValue = &m.After.Asset
	a.OldIdentifier = nonNil(m.Before.ID)
	a.NewIdentifier = nonNil(m.Before.ID)
	a.Comment = c.say("updated an attachment")
	return []models.IssueActivity{a}, nil
}

func (m AttachmentDeleted) track(_ context.Context, c *Context) ([]models.IssueActivity, error) {
	a := c.record(models.VerbDeleted, models.FieldAttachment)
	if m.Before != nil {
		a.OldIdentifier = nonNil(m.Before.ID)
	}
	a.Comment = c.say("deleted the attachment")
	return []models.IssueActivity{a}, nil
}

func nonNil(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
