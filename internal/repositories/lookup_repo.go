package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/issue-activity/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LookupRepo reads the display attributes of rows referenced by activity
// records. Missing rows are reported as models.ErrNotFound.
type LookupRepo struct {
	pool *pgxpool.Pool
}

func NewLookupRepo(pool *pgxpool.Pool) *LookupRepo {
	return &LookupRepo{pool: pool}
}

func (r *LookupRepo) Actor(ctx context.Context, id uuid.UUID) (*models.Actor, error) {
	var a models.Actor
	err := r.pool.QueryRow(ctx, `SELECT id, email FROM users WHERE id = $1`, id).Scan(&a.ID, &a.Email)
	if err != nil {
		return nil, notFound("user", id, err)
	}
	return &a, nil
}

func (r *LookupRepo) Project(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var p models.Project
	err := r.pool.QueryRow(ctx, `
		SELECT id, workspace_id, identifier FROM projects WHERE id = $1
	`, id).Scan(&p.ID, &p.WorkspaceID, &p.Identifier)
	if err != nil {
		return nil, notFound("project", id, err)
	}
	return &p, nil
}

func (r *LookupRepo) Issue(ctx context.Context, id uuid.UUID) (*models.IssueRef, error) {
	var ref models.IssueRef
	err := r.pool.QueryRow(ctx, `
		SELECT id, sequence_id, name FROM issues WHERE id = $1
	`, id).Scan(&ref.ID, &ref.SequenceID, &ref.Name)
	if err != nil {
		return nil, notFound("issue", id, err)
	}
	return &ref, nil
}

func (r *LookupRepo) StateName(ctx context.Context, id uuid.UUID) (string, error) {
	return r.name(ctx, "state", `SELECT name FROM states WHERE id = $1`, id)
}

func (r *LookupRepo) LabelName(ctx context.Context, id uuid.UUID) (string, error) {
	return r.name(ctx, "label", `SELECT name FROM labels WHERE id = $1`, id)
}

func (r *LookupRepo) UserEmail(ctx context.Context, id uuid.UUID) (string, error) {
	return r.name(ctx, "user", `SELECT email FROM users WHERE id = $1`, id)
}

func (r *LookupRepo) CycleName(ctx context.Context, id uuid.UUID) (string, error) {
	return r.name(ctx, "cycle", `SELECT name FROM cycles WHERE id = $1`, id)
}

func (r *LookupRepo) ModuleName(ctx context.Context, id uuid.UUID) (string, error) {
	return r.name(ctx, "module", `SELECT name FROM modules WHERE id = $1`, id)
}

func (r *LookupRepo) name(ctx context.Context, entity, query string, id uuid.UUID) (string, error) {
	var n string
	if err := r.pool.QueryRow(ctx, query, id).Scan(&n); err != nil {
		return "", notFound(entity, id, err)
	}
	return n, nil
}

func notFound(entity string, id uuid.UUID, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, id, models.ErrNotFound)
	}
	return fmt.Errorf("load %s %s: %w", entity, id, err)
}
