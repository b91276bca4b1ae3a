package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/issue-activity/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ActivityRepo struct {
	pool *pgxpool.Pool
}

func NewActivityRepo(pool *pgxpool.Pool) *ActivityRepo {
	return &ActivityRepo{pool: pool}
}

const insertActivitySQL = `
	INSERT INTO issue_activities (
		issue_id, project_id, workspace_id, actor_id, verb, field,
		old_value, new_value, old_identifier, new_identifier, comment, issue_comment_id
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING id, created_at
`

// CreateBatch persists drafts in a single transaction and returns them with
// their generated id and created_at, in the order given. Either every draft
// is stored or none is.
func (r *ActivityRepo) CreateBatch(ctx context.Context, drafts []models.IssueActivity) ([]models.IssueActivity, error) {
	if len(drafts) == 0 {
		return nil, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, a := range drafts {
		batch.Queue(insertActivitySQL,
			a.IssueID, a.ProjectID, a.WorkspaceID, a.ActorID, string(a.Verb), a.Field,
			a.OldValue, a.NewValue, a.OldIdentifier, a.NewIdentifier, a.Comment, a.IssueCommentID,
		)
	}

	saved := make([]models.IssueActivity, len(drafts))
	copy(saved, drafts)

	results := tx.SendBatch(ctx, batch)
	for i := range saved {
		if err := results.QueryRow().Scan(&saved[i].ID, &saved[i].CreatedAt); err != nil {
			_ = results.Close()
			return nil, fmt.Errorf("insert activity %d/%d: %w", i+1, len(saved), err)
		}
	}
	if err := results.Close(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return saved, nil
}

// ListByIssue returns an issue's history, newest first.
func (r *ActivityRepo) ListByIssue(ctx context.Context, projectID, issueID uuid.UUID, limit, offset int) ([]models.IssueActivity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, issue_id, project_id, workspace_id, actor_id, verb, field,
			old_value, new_value, old_identifier, new_identifier, comment, issue_comment_id, created_at
		FROM issue_activities WHERE project_id = $1 AND issue_id = $2
		ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4
	`, projectID, issueID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := []models.IssueActivity{}
	for rows.Next() {
		var (
			a    models.IssueActivity
			verb string
		)
		if err := rows.Scan(
			&a.ID, &a.IssueID, &a.ProjectID, &a.WorkspaceID, &a.ActorID, &verb, &a.Field,
			&a.OldValue, &a.NewValue, &a.OldIdentifier, &a.NewIdentifier, &a.Comment, &a.IssueCommentID, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		a.Verb = models.Verb(verb)
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
