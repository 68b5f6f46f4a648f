package dto

import (
	"time"

	"toolrental/internal/domain"
)

type Review struct {
	ID           string    `json:"id"`
	ToolID       string    `json:"toolId"`
	ReviewerID   string    `json:"reviewerId"`
	ReviewerName string    `json:"reviewerName,omitempty"`
	Rating       int       `json:"rating"`
	Comment      *string   `json:"comment"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func ReviewFromDomain(review *domain.Review) *Review {
	if review == nil {
		return nil
	}

	return &Review{
		ID:           review.ID.String(),
		ToolID:       review.ToolID.String(),
		ReviewerID:   review.ReviewerID.String(),
		ReviewerName: review.ReviewerName,
		Rating:       review.Rating,
		Comment:      review.Comment,
		CreatedAt:    review.CreatedAt,
		UpdatedAt:    review.UpdatedAt,
	}
}

func ReviewsFromDomain(reviews []domain.Review) []*Review {
	result := make([]*Review, len(reviews))
	for i := range reviews {
		result[i] = ReviewFromDomain(&reviews[i])
	}
	return result
}

type ReviewSummary struct {
	AvgRating   float64 `json:"avgRating"`
	ReviewCount int     `json:"reviewCount"`
}

type ReviewEligibility struct {
	CanReview bool `json:"canReview"`
}

type ReviewRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5" example:"5"`
	Comment *string `json:"comment"`
}
