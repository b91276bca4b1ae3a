package activity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/issue-activity/backend/internal/models"
)

// fakeResolver serves names from maps; missing ids are reported as not found.
type fakeResolver struct {
	states  map[uuid.UUID]string
	labels  map[uuid.UUID]string
	users   map[uuid.UUID]string
	cycles  map[uuid.UUID]string
	modules map[uuid.UUID]string
	issues  map[uuid.UUID]models.IssueRef
	err     error
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		states:  map[uuid.UUID]string{},
		labels:  map[uuid.UUID]string{},
		users:   map[uuid.UUID]string{},
		cycles:  map[uuid.UUID]string{},
		modules: map[uuid.UUID]string{},
		issues:  map[uuid.UUID]models.IssueRef{},
	}
}

func lookup[T any](r *fakeResolver, m map[uuid.UUID]T, id uuid.UUID) (T, error) {
	var zero T
	if r.err != nil {
		return zero, r.err
	}
	v, ok := m[id]
	if !ok {
		return zero, models.ErrNotFound
	}
	return v, nil
}

func (r *fakeResolver) Actor(_ context.Context, id uuid.UUID) (*models.Actor, error) {
	email, err := lookup(r, r.users, id)
	if err != nil {
		return nil, err
	}
	return &models.Actor{ID: id, Email: email}, nil
}

func (r *fakeResolver) Project(_ context.Context, id uuid.UUID) (*models.Project, error) {
	return nil, errors.New("not used")
}

func (r *fakeResolver) Issue(_ context.Context, id uuid.UUID) (*models.IssueRef, error) {
	ref, err := lookup(r, r.issues, id)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *fakeResolver) StateName(_ context.Context, id uuid.UUID) (string, error) {
	return lookup(r, r.states, id)
}

func (r *fakeResolver) LabelName(_ context.Context, id uuid.UUID) (string, error) {
	return lookup(r, r.labels, id)
}

func (r *fakeResolver) UserEmail(_ context.Context, id uuid.UUID) (string, error) {
	return lookup(r, r.users, id)
}

func (r *fakeResolver) CycleName(_ context.Context, id uuid.UUID) (string, error) {
	return lookup(r, r.cycles, id)
}

func (r *fakeResolver) ModuleName(_ context.Context, id uuid.UUID) (string, error) {
	return lookup(r, r.modules, id)
}

var (
	testActor   = models.Actor{ID: uuid.MustParse("00000000-0000-0000-0000-0000000000a1"), Email: "alice@x.com"}
	testProject = models.Project{
		ID:          uuid.MustParse("00000000-0000-0000-0000-0000000000b1"),
		WorkspaceID: uuid.MustParse("00000000-0000-0000-0000-0000000000c1"),
		Identifier:  "WEB",
	}
	testIssue = uuid.MustParse("00000000-0000-0000-0000-0000000000d1")
)

func newTestContext(r Resolver) *Context {
	return NewContext(testActor, testProject, testIssue, r)
}

func strPtr(s string) *string {
	return &s
}

func idPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
