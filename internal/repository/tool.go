package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"toolrental/internal/domain"
)

const toolColumns = `tools.id, tools.created_at, tools.updated_at, tools.deleted_at, tools.owner_id,
	tools.name, tools.description, tools.category, tools.condition, tools.image_url,
	tools.price_per_day_cents, tools.available`

type ToolRepository struct {
	db ExtHandle
}

func NewToolRepository(db ExtHandle) *ToolRepository {
	return &ToolRepository{db: db}
}

func (r *ToolRepository) Create(ctx context.Context, tool *domain.Tool) error {
	query := `
		INSERT INTO tools (owner_id, name, description, category, condition, image_url, price_per_day_cents, available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true)
		RETURNING id, created_at, updated_at, available
	`

	err := r.db.QueryRowxContext(ctx, query,
		tool.OwnerID, tool.Name, tool.Description, tool.Category, tool.Condition, tool.ImageURL, tool.PricePerDayCents,
	).Scan(&tool.ID, &tool.CreatedAt, &tool.UpdatedAt, &tool.Available)
	if err != nil {
		if isForeignKeyError(err) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (r *ToolRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Tool, error) {
	query := `
		SELECT ` + toolColumns + `, users.name AS owner_name
		FROM tools
		JOIN users ON users.id = tools.owner_id
		WHERE tools.id = $1 AND tools.deleted_at IS NULL
	`

	tool := &domain.Tool{}
	if err := r.db.GetContext(ctx, tool, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrToolNotFound
		}
		return nil, err
	}
	return tool, nil
}

// FindByIDForUpdate locks the tool row until the surrounding transaction ends.
func (r *ToolRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Tool, error) {
	query := `
		SELECT ` + toolColumns + `
		FROM tools
		WHERE tools.id = $1 AND tools.deleted_at IS NULL
		FOR UPDATE
	`

	tool := &domain.Tool{}
	if err := r.db.GetContext(ctx, tool, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrToolNotFound
		}
		return nil, err
	}
	return tool, nil
}

func (r *ToolRepository) List(ctx context.Context, filter domain.ToolFilter) ([]domain.Tool, error) {
	filter.Normalize()

	var (
		conds = []string{"tools.deleted_at IS NULL"}
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Query != "" {
		p := arg("%" + escapeLike(filter.Query) + "%")
		conds = append(conds, fmt.Sprintf(
			"(tools.name ILIKE %[1]s OR tools.category ILIKE %[1]s OR tools.description ILIKE %[1]s OR users.name ILIKE %[1]s)", p))
	}
	if filter.Category != "" {
		conds = append(conds, "LOWER(tools.category) = LOWER("+arg(filter.Category)+")")
	}
	if filter.Available != nil {
		conds = append(conds, "tools.available = "+arg(*filter.Available))
	}

	query := `
		SELECT ` + toolColumns + `, users.name AS owner_name
		FROM tools
		JOIN users ON users.id = tools.owner_id
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY ` + toolOrderBy(filter.Sort) + `
		LIMIT ` + arg(filter.Limit) + ` OFFSET ` + arg(filter.Offset)

	tools := []domain.Tool{}
	if err := r.db.SelectContext(ctx, &tools, query, args...); err != nil {
		return nil, err
	}
	return tools, nil
}

func toolOrderBy(sort domain.ToolSort) string {
	switch sort {
	case domain.ToolSortPriceAsc:
		return "tools.price_per_day_cents ASC, tools.created_at DESC"
	case domain.ToolSortPriceDesc:
		return "tools.price_per_day_cents DESC, tools.created_at DESC"
	case domain.ToolSortNameAsc:
		return "LOWER(tools.name) ASC, tools.created_at DESC"
	default:
		return "tools.created_at DESC, tools.id DESC"
	}
}

func (r *ToolRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Tool, error) {
	query := `
		SELECT ` + toolColumns + `, users.name AS owner_name
		FROM tools
		JOIN users ON users.id = tools.owner_id
		WHERE tools.owner_id = $1 AND tools.deleted_at IS NULL
		ORDER BY tools.created_at DESC
	`

	tools := []domain.Tool{}
	if err := r.db.SelectContext(ctx, &tools, query, ownerID); err != nil {
		return nil, err
	}
	return tools, nil
}

// Update writes the owner-editable columns. The available flag is not one of them.
func (r *ToolRepository) Update(ctx context.Context, tool *domain.Tool) error {
	query := `
		UPDATE tools
		SET name = $1, description = $2, category = $3, condition = $4, image_url = $5,
		    price_per_day_cents = $6, updated_at = NOW()
		WHERE id = $7 AND deleted_at IS NULL
		RETURNING updated_at, available
	`

	err := r.db.QueryRowxContext(ctx, query,
		tool.Name, tool.Description, tool.Category, tool.Condition, tool.ImageURL, tool.PricePerDayCents, tool.ID,
	).Scan(&tool.UpdatedAt, &tool.Available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrToolNotFound
		}
		return err
	}
	return nil
}

func (r *ToolRepository) SetAvailable(ctx context.Context, id uuid.UUID, available bool) error {
	query := `UPDATE tools SET available = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, available, id)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrToolNotFound)
}

func (r *ToolRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE tools SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrToolNotFound)
}
