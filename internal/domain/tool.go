package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Tool struct {
	Model
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
	OwnerID          uuid.UUID `json:"owner_id" db:"owner_id"`
	Name             string    `json:"name" db:"name"`
	Description      string    `json:"description" db:"description"`
	Category         string    `json:"category" db:"category"`
	Condition        string    `json:"condition" db:"condition"`
	ImageURL         string    `json:"image_url" db:"image_url"`
	PricePerDayCents int64     `json:"price_per_day_cents" db:"price_per_day_cents"`
	Available        bool      `json:"available" db:"available"`
	OwnerName        string    `json:"owner_name" db:"owner_name"`
}

func (t *Tool) OwnedBy(userID uuid.UUID) bool {
	return t.OwnerID == userID
}

type ToolSort string

const (
	ToolSortNewest    ToolSort = "newest"
	ToolSortPriceAsc  ToolSort = "price_asc"
	ToolSortPriceDesc ToolSort = "price_desc"
	ToolSortNameAsc   ToolSort = "name_asc"
)

// ParseToolSort falls back to newest for unknown values.
func ParseToolSort(s string) ToolSort {
	switch ToolSort(strings.ToLower(strings.TrimSpace(s))) {
	case ToolSortPriceAsc:
		return ToolSortPriceAsc
	case ToolSortPriceDesc:
		return ToolSortPriceDesc
	case ToolSortNameAsc:
		return ToolSortNameAsc
	default:
		return ToolSortNewest
	}
}

const (
	DefaultToolPageSize = 20
	MaxToolPageSize     = 100
)

type ToolFilter struct {
	Query     string
	Category  string
	Available *bool
	Sort      ToolSort
	Limit     int
	Offset    int
}

func (f *ToolFilter) Normalize() {
	f.Query = strings.TrimSpace(f.Query)
	f.Category = strings.TrimSpace(f.Category)
	if f.Sort == "" {
		f.Sort = ToolSortNewest
	}
	if f.Limit <= 0 {
		f.Limit = DefaultToolPageSize
	}
	if f.Limit > MaxToolPageSize {
		f.Limit = MaxToolPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}
