package repository

import (
	"context"

	"github.com/google/uuid"

	"toolrental/internal/domain"
)

type ReviewRepository struct {
	db ExtHandle
}

func NewReviewRepository(db ExtHandle) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Upsert inserts the review or overwrites the reviewer's earlier review of the same tool.
func (r *ReviewRepository) Upsert(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO tool_reviews (tool_id, reviewer_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tool_id, reviewer_id)
		DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	return r.db.QueryRowxContext(ctx, query,
		review.ToolID, review.ReviewerID, review.Rating, review.Comment,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
}

func (r *ReviewRepository) ListByTool(ctx context.Context, toolID uuid.UUID) ([]domain.Review, error) {
	query := `
		SELECT tool_reviews.id, tool_reviews.created_at, tool_reviews.updated_at, tool_reviews.tool_id,
			tool_reviews.reviewer_id, tool_reviews.rating, tool_reviews.comment, users.name AS reviewer_name
		FROM tool_reviews
		JOIN users ON users.id = tool_reviews.reviewer_id
		WHERE tool_reviews.tool_id = $1
		ORDER BY tool_reviews.updated_at DESC
	`

	reviews := []domain.Review{}
	if err := r.db.SelectContext(ctx, &reviews, query, toolID); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *ReviewRepository) Summary(ctx context.Context, toolID uuid.UUID) (*domain.ReviewSummary, error) {
	query := `
		SELECT COALESCE(AVG(rating), 0)::float8 AS avg_rating, COUNT(*)::int AS review_count
		FROM tool_reviews
		WHERE tool_id = $1
	`

	summary := &domain.ReviewSummary{}
	if err := r.db.GetContext(ctx, summary, query, toolID); err != nil {
		return nil, err
	}
	return summary, nil
}
