package dto

import (
	"time"

	"toolrental/internal/domain"
)

type Tool struct {
	ID               string    `json:"id"`
	OwnerID          string    `json:"ownerId"`
	OwnerName        string    `json:"ownerName,omitempty"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Category         string    `json:"category"`
	Condition        string    `json:"condition"`
	ImageURL         string    `json:"imageUrl"`
	PricePerDayCents int64     `json:"pricePerDayCents"`
	Available        bool      `json:"available"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func ToolFromDomain(tool *domain.Tool) *Tool {
	if tool == nil {
		return nil
	}

	return &Tool{
		ID:               tool.ID.String(),
		OwnerID:          tool.OwnerID.String(),
		OwnerName:        tool.OwnerName,
		Name:             tool.Name,
		Description:      tool.Description,
		Category:         tool.Category,
		Condition:        tool.Condition,
		ImageURL:         tool.ImageURL,
		PricePerDayCents: tool.PricePerDayCents,
		Available:        tool.Available,
		CreatedAt:        tool.CreatedAt,
		UpdatedAt:        tool.UpdatedAt,
	}
}

func ToolsFromDomain(tools []domain.Tool) []*Tool {
	result := make([]*Tool, len(tools))
	for i := range tools {
		result[i] = ToolFromDomain(&tools[i])
	}
	return result
}

type ToolRequest struct {
	Name             string `json:"name" validate:"required,max=255" example:"Cordless Drill"`
	Description      string `json:"description" validate:"max=5000"`
	Category         string `json:"category" validate:"max=100" example:"Power Tools"`
	Condition        string `json:"condition" validate:"max=100" example:"good"`
	ImageURL         string `json:"imageUrl" validate:"omitempty,url"`
	PricePerDayCents int64  `json:"pricePerDayCents" validate:"gte=0" example:"1500"`
}
