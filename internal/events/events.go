package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"toolrental/internal/domain"
)

const TypeRentalStatusChanged = "rental.status_changed"

const dateLayout = "2006-01-02"

// RentalEvent is published after a rental transition has been committed.
type RentalEvent struct {
	Type           string              `json:"type"`
	RentalID       uuid.UUID           `json:"rental_id"`
	ToolID         uuid.UUID           `json:"tool_id"`
	OwnerID        uuid.UUID           `json:"owner_id"`
	RenterID       uuid.UUID           `json:"renter_id"`
	Status         domain.RentalStatus `json:"status"`
	PreviousStatus domain.RentalStatus `json:"previous_status,omitempty"`
	StartDate      string              `json:"start_date"`
	EndDate        string              `json:"end_date"`
	OccurredAt     time.Time           `json:"occurred_at"`
}

func NewRentalEvent(rental *domain.Rental, previous domain.RentalStatus) RentalEvent {
	return RentalEvent{
		Type:           TypeRentalStatusChanged,
		RentalID:       rental.ID,
		ToolID:         rental.ToolID,
		OwnerID:        rental.OwnerID,
		RenterID:       rental.RenterID,
		Status:         rental.Status,
		PreviousStatus: previous,
		StartDate:      rental.StartDate.Format(dateLayout),
		EndDate:        rental.EndDate.Format(dateLayout),
		OccurredAt:     time.Now().UTC(),
	}
}

type Publisher interface {
	PublishRentalEvent(ctx context.Context, event RentalEvent) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishRentalEvent(context.Context, RentalEvent) error {
	return nil
}
