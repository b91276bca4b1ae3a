package activity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/issue-activity/backend/internal/models"
)

// Resolver loads the display attributes of entities referenced by a diff.
// Lookups of rows that no longer exist return models.ErrNotFound.
type Resolver interface {
	Actor(ctx context.Context, id uuid.UUID) (*models.Actor, error)
	Project(ctx context.Context, id uuid.UUID) (*models.Project, error)
	Issue(ctx context.Context, id uuid.UUID) (*models.IssueRef, error)
	StateName(ctx context.Context, id uuid.UUID) (string, error)
	LabelName(ctx context.Context, id uuid.UUID) (string, error)
	UserEmail(ctx context.Context, id uuid.UUID) (string, error)
	CycleName(ctx context.Context, id uuid.UUID) (string, error)
	ModuleName(ctx context.Context, id uuid.UUID) (string, error)
}

// Context is everything a comparator needs besides the old and new values.
// It is built once per event and never outlives it.
type Context struct {
	Actor    models.Actor
	Project  models.Project
	IssueID  uuid.UUID
	resolver Resolver
}

func NewContext(actor models.Actor, project models.Project, issueID uuid.UUID, resolver Resolver) *Context {
	return &Context{
		Actor:    actor,
		Project:  project,
		IssueID:  issueID,
		resolver: resolver,
	}
}

// record starts a draft attributed to the actor. Workspace always comes from the project.
func (c *Context) record(verb models.Verb, field string) models.IssueActivity {
	a := models.IssueActivity{
		IssueID:     c.IssueID,
		ProjectID:   c.Project.ID,
		WorkspaceID: c.Project.WorkspaceID,
		ActorID:     c.Actor.ID,
		Verb:        verb,
	}
	if field != "" {
		a.Field = &field
	}
	return a
}

func (c *Context) say(format string, args ...any) string {
	return c.Actor.Email + " " + fmt.Sprintf(format, args...)
}

type nameFunc func(ctx context.Context, c *Context, id uuid.UUID) (string, error)

// name resolves id through fn. A nil id or a target that no longer exists
// yields nil; any other lookup failure is returned.
func (c *Context) name(ctx context.Context, fn nameFunc, id *uuid.UUID) (*string, error) {
	if id == nil {
		return nil, nil
	}
	n, err := fn(ctx, c, *id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func stateName(ctx context.Context, c *Context, id uuid.UUID) (string, error) {
	return c.resolver.StateName(ctx, id)
}

func labelName(ctx context.Context, c *Context, id uuid.UUID) (string, error) {
	return c.resolver.LabelName(ctx, id)
}

func userEmail(ctx context.Context, c *Context, id uuid.UUID) (string, error) {
	return c.resolver.UserEmail(ctx, id)
}

func cycleName(ctx context.Context, c *Context, id uuid.UUID) (string, error) {
	return c.resolver.CycleName(ctx, id)
}

func moduleName(ctx context.Context, c *Context, id uuid.UUID) (string, error) {
	return c.resolver.ModuleName(ctx, id)
}

// issueKey renders another issue as "<PROJECT>-<sequence>".
func issueKey(ctx context.Context, c *Context, id uuid.UUID) (string, error) {
	ref, err := c.resolver.Issue(ctx, id)
	if err != nil {
		return "", err
	}
	return c.Project.IssueKey(ref.SequenceID), nil
}

func orNone(s *string) string {
	if s == nil {
		return "None"
	}
	return *s
}
