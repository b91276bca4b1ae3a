package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/issue-activity/backend/internal/db"
	"github.com/issue-activity/backend/internal/models"
	"github.com/issue-activity/backend/migrations"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"
)

func TestNotFound(t *testing.T) {
	id := uuid.New()

	err := notFound("state", id, pgx.ErrNoRows)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	err = notFound("state", id, errors.New("conn reset"))
	assert.False(t, errors.Is(err, models.ErrNotFound))
	assert.Contains(t, err.Error(), "conn reset")
}

var (
	pgOnce sync.Once
	pgDSN  string
	pgErr  error
)

// testPool connects to ACTIVITY_TEST_POSTGRES_DSN, or to a throwaway Postgres
// container shared by the package, and applies migrations. Tests are skipped
// only when no DSN is set and Docker is unavailable.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("ACTIVITY_TEST_POSTGRES_DSN")
	if dsn == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)
		pgOnce.Do(func() { pgDSN, pgErr = startPostgres() })
		require.NoError(t, pgErr)
		dsn = pgDSN
	}

	ctx := context.Background()
	pool, err := db.NewPostgresPool(ctx, dsn, 4, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.RunMigrations(ctx, pool, migrations.FS, zap.NewNop()))
	return pool
}

// startPostgres runs the container for the whole package; the testcontainers
// reaper removes it when the test binary exits.
func startPostgres() (string, error) {
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("issue_activity"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		return "", fmt.Errorf("start postgres container: %w", err)
	}
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return "", fmt.Errorf("postgres connection string: %w", err)
	}
	return dsn, nil
}

type fixture struct {
	project models.Project
	actor   models.Actor
	issue   uuid.UUID
	state   uuid.UUID
}

func seed(t *testing.T, pool *pgxpool.Pool) fixture {
	t.Helper()
	ctx := context.Background()

	var f fixture
	f.project.Identifier = "WEB"
	f.actor.Email = uuid.NewString() + "@x.com"

	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO workspaces (name) VALUES ('acme') RETURNING id`).Scan(&f.project.WorkspaceID))
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO users (email) VALUES ($1) RETURNING id`, f.actor.Email).Scan(&f.actor.ID))
	require.NoError(t, pool.QueryRow(ctx, `
		INSERT INTO projects (workspace_id, identifier, name) VALUES ($1, $2, 'Web') RETURNING id
	`, f.project.WorkspaceID, f.project.Identifier).Scan(&f.project.ID))
	require.NoError(t, pool.QueryRow(ctx, `
		INSERT INTO issues (project_id, sequence_id, name) VALUES ($1, 12, 'Login page') RETURNING id
	`, f.project.ID).Scan(&f.issue))
	require.NoError(t, pool.QueryRow(ctx, `
		INSERT INTO states (project_id, name) VALUES ($1, 'Done') RETURNING id
	`, f.project.ID).Scan(&f.state))
	return f
}

func draft(f fixture, comment string) models.IssueActivity {
	field := models.FieldName
	return models.IssueActivity{
		IssueID:     f.issue,
		ProjectID:   f.project.ID,
		WorkspaceID: f.project.WorkspaceID,
		ActorID:     f.actor.ID,
		Verb:        models.VerbUpdated,
		Field:       &field,
		Comment:     comment,
	}
}

func TestActivityRepo_CreateBatchAndList(t *testing.T) {
	pool := testPool(t)
	f := seed(t, pool)
	repo := NewActivityRepo(pool)
	ctx := context.Background()

	saved, err := repo.CreateBatch(ctx, []models.IssueActivity{draft(f, "first"), draft(f, "second")})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	for _, a := range saved {
		assert.NotEqual(t, uuid.Nil, a.ID)
		assert.False(t, a.CreatedAt.IsZero())
	}
	assert.Equal(t, "first", saved[0].Comment)

	history, err := repo.ListByIssue(ctx, f.project.ID, f.issue, 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "second", history[0].Comment)
	assert.Equal(t, models.VerbUpdated, history[0].Verb)
	assert.Equal(t, models.FieldName, *history[0].Field)

	page, err := repo.ListByIssue(ctx, f.project.ID, f.issue, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "first", page[0].Comment)
}

func TestActivityRepo_CreateBatchIsAtomic(t *testing.T) {
	pool := testPool(t)
	f := seed(t, pool)
	repo := NewActivityRepo(pool)
	ctx := context.Background()

	// the empty narrative violates the comment check constraint
	_, err := repo.CreateBatch(ctx, []models.IssueActivity{draft(f, "ok"), draft(f, ""), draft(f, "ok")})
	require.Error(t, err)

	history, err := repo.ListByIssue(ctx, f.project.ID, f.issue, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestActivityRepo_CreateBatchEmpty(t *testing.T) {
	saved, err := (&ActivityRepo{}).CreateBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestLookupRepo(t *testing.T) {
	pool := testPool(t)
	f := seed(t, pool)
	repo := NewLookupRepo(pool)
	ctx := context.Background()

	actor, err := repo.Actor(ctx, f.actor.ID)
	require.NoError(t, err)
	assert.Equal(t, f.actor, *actor)

	project, err := repo.Project(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, f.project, *project)

	issue, err := repo.Issue(ctx, f.issue)
	require.NoError(t, err)
	assert.Equal(t, 12, issue.SequenceID)
	assert.Equal(t, "WEB-12", project.IssueKey(issue.SequenceID))

	name, err := repo.StateName(ctx, f.state)
	require.NoError(t, err)
	assert.Equal(t, "Done", name)

	_, err = repo.LabelName(ctx, uuid.New())
	assert.True(t, errors.Is(err, models.ErrNotFound))
}
