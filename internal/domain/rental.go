package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type RentalStatus string

const (
	RentalStatusPending         RentalStatus = "pending"
	RentalStatusApproved        RentalStatus = "approved"
	RentalStatusRejected        RentalStatus = "rejected"
	RentalStatusReturnedPending RentalStatus = "returned_pending"
	RentalStatusCompleted       RentalStatus = "completed"
)

var rentalTransitions = map[RentalStatus][]RentalStatus{
	RentalStatusPending:         {RentalStatusApproved, RentalStatusRejected},
	RentalStatusApproved:        {RentalStatusReturnedPending},
	RentalStatusReturnedPending: {RentalStatusCompleted},
}

func (s RentalStatus) Valid() bool {
	switch s {
	case RentalStatusPending, RentalStatusApproved, RentalStatusRejected,
		RentalStatusReturnedPending, RentalStatusCompleted:
		return true
	}
	return false
}

func (s RentalStatus) IsTerminal() bool {
	return s == RentalStatusRejected || s == RentalStatusCompleted
}

func (s RentalStatus) CanTransitionTo(next RentalStatus) bool {
	for _, allowed := range rentalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Rental dates are calendar days; both ends are part of the booking.
type Rental struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
	ToolID      uuid.UUID    `json:"tool_id" db:"tool_id"`
	RenterID    uuid.UUID    `json:"renter_id" db:"renter_id"`
	OwnerID     uuid.UUID    `json:"owner_id" db:"owner_id"`
	StartDate   time.Time    `json:"start_date" db:"start_date"`
	EndDate     time.Time    `json:"end_date" db:"end_date"`
	Status      RentalStatus `json:"status" db:"status"`
	ReturnedAt  sql.NullTime `json:"returned_at" db:"returned_at"`
	CompletedAt sql.NullTime `json:"completed_at" db:"completed_at"`
}

func (r *Rental) IsParticipant(userID uuid.UUID) bool {
	return r.OwnerID == userID || r.RenterID == userID
}

func (r *Rental) Overlaps(other *Rental) bool {
	return DatesOverlap(r.StartDate, r.EndDate, other.StartDate, other.EndDate)
}

// Days counts the booked days including both the start and the end date.
func (r *Rental) Days() int {
	return int(TruncateDate(r.EndDate).Sub(TruncateDate(r.StartDate)).Hours()/24) + 1
}

// DatesOverlap treats both ranges as closed intervals.
func DatesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RentalListItem is a rental joined with its tool and the other party.
type RentalListItem struct {
	Rental
	ToolName         string `json:"tool_name" db:"tool_name"`
	ToolPriceCents   int64  `json:"tool_price_per_day_cents" db:"tool_price_per_day_cents"`
	ToolImageURL     string `json:"tool_image_url" db:"tool_image_url"`
	CounterpartName  string `json:"counterpart_name" db:"counterpart_name"`
	CounterpartEmail string `json:"counterpart_email" db:"counterpart_email"`
}
