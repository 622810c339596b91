package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"untangle/internal/memory/domain"
)

func setupDecisionTestDB(t *testing.T) *SQLiteDecisionRepository {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewSQLiteDecisionRepository(db)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func TestSQLiteDecisionRepository_AppendAndLoad(t *testing.T) {
	repo := setupDecisionTestDB(t)
	ctx := context.Background()

	first := testDecision(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC), domain.UserActionApprove)
	second := testDecision(time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC), domain.UserActionSkip)
	require.NoError(t, repo.Append(ctx, second))
	require.NoError(t, repo.Append(ctx, first))

	loaded, err := repo.LoadSince(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, first.ID, loaded[0].ID)
	assert.Equal(t, second.ID, loaded[1].ID)
	assert.Equal(t, domain.UserActionSkip, loaded[1].UserAction)
}

func TestSQLiteDecisionRepository_ReplayIsIdempotent(t *testing.T) {
	repo := setupDecisionTestDB(t)
	ctx := context.Background()

	d := testDecision(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC), domain.UserActionApprove)
	require.NoError(t, repo.Append(ctx, d))
	require.NoError(t, repo.Append(ctx, d))

	loaded, err := repo.LoadSince(ctx, time.Time{})
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestSQLiteDecisionRepository_RevisionsCoexist(t *testing.T) {
	repo := setupDecisionTestDB(t)
	ctx := context.Background()

	original := testDecision(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC), domain.UserActionApprove)
	amended := original.WithFeedback(domain.OutcomeSuccess, "", time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC))
	amended.RecordedAt = original.RecordedAt
	require.NoError(t, repo.Append(ctx, original))
	require.NoError(t, repo.Append(ctx, amended))

	loaded, err := repo.LoadSince(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	collapsed := domain.LastWriteWins(loaded)
	require.Len(t, collapsed, 1)
	assert.Equal(t, 2, collapsed[0].Revision)
	require.NotNil(t, collapsed[0].Feedback)
}

func TestSQLiteDecisionRepository_CleanupAndCutoff(t *testing.T) {
	repo := setupDecisionTestDB(t)
	ctx := context.Background()

	old := testDecision(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC), domain.UserActionApprove)
	recent := testDecision(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC), domain.UserActionApprove)
	require.NoError(t, repo.Append(ctx, old))
	require.NoError(t, repo.Append(ctx, recent))

	cutoff := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	loaded, err := repo.LoadSince(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, recent.ID, loaded[0].ID)

	require.NoError(t, repo.Cleanup(ctx, cutoff))
	all, err := repo.LoadSince(ctx, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
