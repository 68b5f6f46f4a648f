package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolrental/internal/domain"
	"toolrental/internal/testutil"
)

func TestReviewRepository_Upsert_Query(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReviewRepository(db)
	now := time.Now()
	comment := "solid"
	review := &domain.Review{ToolID: uuid.New(), ReviewerID: uuid.New(), Rating: 4, Comment: &comment}

	mock.ExpectQuery(`ON CONFLICT \(tool_id, reviewer_id\)\s+DO UPDATE SET rating = EXCLUDED.rating`).
		WithArgs(review.ToolID, review.ReviewerID, 4, &comment).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(uuid.NewString(), now, now))

	require.NoError(t, repo.Upsert(context.Background(), review))
	assert.NotEqual(t, uuid.Nil, review.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_UpsertOverwrites(t *testing.T) {
	testutil.RequireDB(t, testDB)

	ctx := context.Background()
	repo := NewReviewRepository(testDB)
	owner := testutil.CreateUser(t, testDB, "owner", "x")
	reviewer := testutil.CreateUser(t, testDB, "reviewer", "x")
	tool := testutil.CreateTool(t, testDB, owner.ID, "Pump", 400)

	first := &domain.Review{ToolID: tool.ID, ReviewerID: reviewer.ID, Rating: 2}
	require.NoError(t, repo.Upsert(ctx, first))

	comment := "better second time"
	second := &domain.Review{ToolID: tool.ID, ReviewerID: reviewer.ID, Rating: 5, Comment: &comment}
	require.NoError(t, repo.Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID)
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))

	reviews, err := repo.ListByTool(ctx, tool.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 5, reviews[0].Rating)
	assert.Equal(t, reviewer.Name, reviews[0].ReviewerName)
	require.NotNil(t, reviews[0].Comment)
	assert.Equal(t, comment, *reviews[0].Comment)

	summary, err := repo.Summary(ctx, tool.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ReviewCount)
	assert.InDelta(t, 5.0, summary.AvgRating, 0.001)
}

func TestReviewRepository_Summary_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReviewRepository(db)
	toolID := uuid.New()

	mock.ExpectQuery(`COALESCE\(AVG\(rating\), 0\)`).
		WithArgs(toolID).
		WillReturnRows(sqlmock.NewRows([]string{"avg_rating", "review_count"}).AddRow(0.0, 0))

	summary, err := repo.Summary(context.Background(), toolID)
	require.NoError(t, err)
	assert.Zero(t, summary.ReviewCount)
	assert.Zero(t, summary.AvgRating)
}
