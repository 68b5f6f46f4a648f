package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	"toolrental/internal/domain"
	"toolrental/internal/logger"
	r "toolrental/internal/redis"
	"toolrental/internal/repository"
)

const maxCommentLength = 2000

type SubmitReviewInput struct {
	ToolID     uuid.UUID
	ReviewerID uuid.UUID
	Rating     int
	Comment    *string
}

type ReviewService struct {
	reviewRepo   *repository.ReviewRepository
	rentalRepo   *repository.RentalRepository
	toolRepo     *repository.ToolRepository
	summaryCache r.Cache[domain.ReviewSummary]
}

func NewReviewService(db *sqlx.DB, rdb *goredis.Client) *ReviewService {
	return &ReviewService{
		reviewRepo:   repository.NewReviewRepository(db),
		rentalRepo:   repository.NewRentalRepository(db),
		toolRepo:     repository.NewToolRepository(db),
		summaryCache: r.NewJSONCache[domain.ReviewSummary](rdb, "review_summary", time.Minute),
	}
}

// Submit stores the reviewer's review of a tool. Only renters with a completed rental
// of that tool may review it; a second submission replaces the first.
func (s *ReviewService) Submit(ctx context.Context, input SubmitReviewInput) (*domain.Review, error) {
	if !domain.ValidRating(input.Rating) {
		return nil, fmt.Errorf("%w: rating must be between %d and %d", domain.ErrValidation, domain.MinRating, domain.MaxRating)
	}

	comment := normalizeComment(input.Comment)
	if comment != nil && len(*comment) > maxCommentLength {
		return nil, fmt.Errorf("%w: comment is too long", domain.ErrValidation)
	}

	if _, err := s.toolRepo.FindByID(ctx, input.ToolID); err != nil {
		return nil, err
	}

	eligible, err := s.rentalRepo.HasCompletedRental(ctx, input.ToolID, input.ReviewerID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, fmt.Errorf("%w: you can only review tools you have rented and returned", domain.ErrForbidden)
	}

	review := &domain.Review{
		ToolID:     input.ToolID,
		ReviewerID: input.ReviewerID,
		Rating:     input.Rating,
		Comment:    comment,
	}
	if err := s.reviewRepo.Upsert(ctx, review); err != nil {
		return nil, err
	}

	if err := s.summaryCache.Delete(ctx, input.ToolID.String()); err != nil {
		logger.Warn("review summary cache delete failed", "tool_id", input.ToolID, "error", err)
	}
	logger.InfoContext(ctx, "review saved", "tool_id", input.ToolID, "reviewer_id", input.ReviewerID, "rating", input.Rating)

	return review, nil
}

// CanReview reports whether the user passes the review gate for the tool.
func (s *ReviewService) CanReview(ctx context.Context, toolID, userID uuid.UUID) (bool, error) {
	if _, err := s.toolRepo.FindByID(ctx, toolID); err != nil {
		return false, err
	}
	return s.rentalRepo.HasCompletedRental(ctx, toolID, userID)
}

func (s *ReviewService) List(ctx context.Context, toolID uuid.UUID) ([]domain.Review, error) {
	return s.reviewRepo.ListByTool(ctx, toolID)
}

func (s *ReviewService) Summary(ctx context.Context, toolID uuid.UUID) (*domain.ReviewSummary, error) {
	summary, err := s.summaryCache.Get(ctx, toolID.String())
	if err != nil {
		logger.Warn("review summary cache get failed", "tool_id", toolID, "error", err)
	}
	if summary != nil {
		return summary, nil
	}

	summary, err = s.reviewRepo.Summary(ctx, toolID)
	if err != nil {
		return nil, err
	}

	_ = s.summaryCache.Set(ctx, toolID.String(), summary)
	return summary, nil
}

func normalizeComment(comment *string) *string {
	if comment == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*comment)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
