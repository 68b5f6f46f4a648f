package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID           uuid.UUID `json:"id" db:"id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
	ToolID       uuid.UUID `json:"tool_id" db:"tool_id"`
	ReviewerID   uuid.UUID `json:"reviewer_id" db:"reviewer_id"`
	Rating       int       `json:"rating" db:"rating"`
	Comment      *string   `json:"comment" db:"comment"`
	ReviewerName string    `json:"reviewer_name" db:"reviewer_name"`
}

func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

type ReviewSummary struct {
	AvgRating   float64 `json:"avg_rating" db:"avg_rating"`
	ReviewCount int     `json:"review_count" db:"review_count"`
}
