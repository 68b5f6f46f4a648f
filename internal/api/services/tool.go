package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	"toolrental/internal/domain"
	"toolrental/internal/logger"
	r "toolrental/internal/redis"
	"toolrental/internal/repository"
)

type ToolInput struct {
	Name             string `valid:"required,length(1|255)"`
	Description      string `valid:"optional,length(0|5000)"`
	Category         string `valid:"optional,length(0|100)"`
	Condition        string `valid:"optional,length(0|100)"`
	ImageURL         string `valid:"optional,url"`
	PricePerDayCents int64  `valid:"-"`
}

func (in *ToolInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.Condition = strings.TrimSpace(in.Condition)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
}

func (in ToolInput) validate() error {
	if _, err := govalidator.ValidateStruct(in); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}
	if in.PricePerDayCents < 0 {
		return fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}
	return nil
}

type ToolService struct {
	db        *sqlx.DB
	toolRepo  *repository.ToolRepository
	toolCache r.Cache[domain.Tool]
}

func NewToolService(db *sqlx.DB, rdb *goredis.Client) *ToolService {
	return &ToolService{
		db:        db,
		toolRepo:  repository.NewToolRepository(db),
		toolCache: NewToolCache(rdb),
	}
}

func NewToolCache(rdb *goredis.Client) *r.JSONCache[domain.Tool] {
	return r.NewJSONCache[domain.Tool](rdb, "tool", 30*time.Second)
}

func (s *ToolService) Create(ctx context.Context, ownerID uuid.UUID, input ToolInput) (*domain.Tool, error) {
	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	tool := &domain.Tool{
		OwnerID:          ownerID,
		Name:             input.Name,
		Description:      input.Description,
		Category:         input.Category,
		Condition:        input.Condition,
		ImageURL:         input.ImageURL,
		PricePerDayCents: input.PricePerDayCents,
	}
	if err := s.toolRepo.Create(ctx, tool); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "tool created", "tool_id", tool.ID, "owner_id", ownerID)
	return tool, nil
}

func (s *ToolService) Get(ctx context.Context, id uuid.UUID) (*domain.Tool, error) {
	tool, err := s.toolCache.Get(ctx, id.String())
	if err != nil {
		logger.Warn("tool cache get failed", "tool_id", id, "error", err)
	}
	if tool != nil {
		return tool, nil
	}

	tool, err = s.toolRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	_ = s.toolCache.Set(ctx, id.String(), tool)
	return tool, nil
}

func (s *ToolService) List(ctx context.Context, filter domain.ToolFilter) ([]domain.Tool, error) {
	return s.toolRepo.List(ctx, filter)
}

func (s *ToolService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Tool, error) {
	return s.toolRepo.ListByOwner(ctx, ownerID)
}

// Update applies an owner edit. Availability is managed by the rental lifecycle only.
func (s *ToolService) Update(ctx context.Context, id, ownerID uuid.UUID, input ToolInput) (*domain.Tool, error) {
	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	tool, err := s.toolRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tool.OwnedBy(ownerID) {
		return nil, fmt.Errorf("%w: only the owner can edit this tool", domain.ErrForbidden)
	}

	tool.Name = input.Name
	tool.Description = input.Description
	tool.Category = input.Category
	tool.Condition = input.Condition
	tool.ImageURL = input.ImageURL
	tool.PricePerDayCents = input.PricePerDayCents

	if err := s.toolRepo.Update(ctx, tool); err != nil {
		return nil, err
	}

	s.Invalidate(ctx, id)
	return tool, nil
}

// Delete soft-deletes the tool unless a rental still holds a claim on it.
func (s *ToolService) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tools := repository.NewToolRepository(tx)
	rentals := repository.NewRentalRepository(tx)

	tool, err := tools.FindByIDForUpdate(ctx, id)
	if err != nil {
		return err
	}
	if !tool.OwnedBy(ownerID) {
		return fmt.Errorf("%w: only the owner can delete this tool", domain.ErrForbidden)
	}

	active, err := rentals.CountActiveByTool(ctx, id)
	if err != nil {
		return err
	}
	if active > 0 {
		return fmt.Errorf("%w: tool has %d open rentals", domain.ErrConflict, active)
	}

	if err := tools.SoftDelete(ctx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.Invalidate(ctx, id)
	logger.InfoContext(ctx, "tool deleted", "tool_id", id, "owner_id", ownerID)
	return nil
}

func (s *ToolService) Invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.toolCache.Delete(ctx, id.String()); err != nil {
		logger.Warn("tool cache delete failed", "tool_id", id, "error", err)
	}
}
