package dto

import (
	"time"

	"toolrental/internal/domain"
)

// DateLayout is the wire format of rental dates.
const DateLayout = "2006-01-02"

type Rental struct {
	ID          string     `json:"id"`
	ToolID      string     `json:"toolId"`
	RenterID    string     `json:"renterId"`
	OwnerID     string     `json:"ownerId"`
	StartDate   string     `json:"startDate"`
	EndDate     string     `json:"endDate"`
	Days        int        `json:"days"`
	Status      string     `json:"status"`
	ReturnedAt  *time.Time `json:"returnedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func RentalFromDomain(rental *domain.Rental) *Rental {
	if rental == nil {
		return nil
	}

	result := &Rental{
		ID:        rental.ID.String(),
		ToolID:    rental.ToolID.String(),
		RenterID:  rental.RenterID.String(),
		OwnerID:   rental.OwnerID.String(),
		StartDate: rental.StartDate.Format(DateLayout),
		EndDate:   rental.EndDate.Format(DateLayout),
		Days:      rental.Days(),
		Status:    string(rental.Status),
		CreatedAt: rental.CreatedAt,
		UpdatedAt: rental.UpdatedAt,
	}
	if rental.ReturnedAt.Valid {
		t := rental.ReturnedAt.Time
		result.ReturnedAt = &t
	}
	if rental.CompletedAt.Valid {
		t := rental.CompletedAt.Time
		result.CompletedAt = &t
	}
	return result
}

// RentalListItem is a rental row with the tool and the other party attached.
type RentalListItem struct {
	*Rental
	ToolName         string `json:"toolName"`
	ToolPriceCents   int64  `json:"toolPricePerDayCents"`
	ToolImageURL     string `json:"toolImageUrl"`
	CounterpartName  string `json:"counterpartName"`
	CounterpartEmail string `json:"counterpartEmail"`
	TotalCents       int64  `json:"totalCents"`
}

func RentalListFromDomain(items []domain.RentalListItem) []*RentalListItem {
	result := make([]*RentalListItem, len(items))
	for i := range items {
		item := &items[i]
		result[i] = &RentalListItem{
			Rental:           RentalFromDomain(&item.Rental),
			ToolName:         item.ToolName,
			ToolPriceCents:   item.ToolPriceCents,
			ToolImageURL:     item.ToolImageURL,
			CounterpartName:  item.CounterpartName,
			CounterpartEmail: item.CounterpartEmail,
			TotalCents:       item.ToolPriceCents * int64(item.Days()),
		}
	}
	return result
}

type RentalRequest struct {
	ToolID    string `json:"toolId" validate:"required,uuid"`
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02" example:"2025-06-01"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02" example:"2025-06-05"`
}
