package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"toolrental/internal/domain"
)

const rentalColumns = `rentals.id, rentals.created_at, rentals.updated_at, rentals.tool_id,
	rentals.renter_id, rentals.owner_id, rentals.start_date, rentals.end_date, rentals.status,
	rentals.returned_at, rentals.completed_at`

var activeRentalStatuses = pq.StringArray{
	string(domain.RentalStatusPending),
	string(domain.RentalStatusApproved),
	string(domain.RentalStatusReturnedPending),
}

type RentalRepository struct {
	db ExtHandle
}

func NewRentalRepository(db ExtHandle) *RentalRepository {
	return &RentalRepository{db: db}
}

func (r *RentalRepository) Create(ctx context.Context, rental *domain.Rental) error {
	if rental.Status == "" {
		rental.Status = domain.RentalStatusPending
	}

	query := `
		INSERT INTO rentals (tool_id, renter_id, owner_id, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		rental.ToolID, rental.RenterID, rental.OwnerID, rental.StartDate, rental.EndDate, rental.Status,
	).Scan(&rental.ID, &rental.CreatedAt, &rental.UpdatedAt)
	if err != nil {
		if isForeignKeyError(err) {
			return ErrRentalForeignKey
		}
		return err
	}
	return nil
}

func (r *RentalRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Rental, error) {
	return r.findOne(ctx, `SELECT `+rentalColumns+` FROM rentals WHERE rentals.id = $1`, id)
}

// FindByIDForUpdate locks the rental row until the surrounding transaction ends.
func (r *RentalRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Rental, error) {
	return r.findOne(ctx, `SELECT `+rentalColumns+` FROM rentals WHERE rentals.id = $1 FOR UPDATE`, id)
}

func (r *RentalRepository) findOne(ctx context.Context, query string, args ...interface{}) (*domain.Rental, error) {
	rental := &domain.Rental{}
	if err := r.db.GetContext(ctx, rental, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRentalNotFound
		}
		return nil, err
	}
	return rental, nil
}

// HasApprovedOverlap reports whether another approved rental of the tool shares
// at least one day with [start, end].
func (r *RentalRepository) HasApprovedOverlap(ctx context.Context, toolID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM rentals
			WHERE tool_id = $1
			  AND status = $2
			  AND id <> $3
			  AND start_date <= $5
			  AND $4 <= end_date
		)
	`

	exists := false
	err := r.db.GetContext(ctx, &exists, query, toolID, domain.RentalStatusApproved, excludeID, start, end)
	return exists, err
}

// UpdateStatus persists status and the lifecycle timestamps of a rental.
// An exclusion violation from the approved-range constraint surfaces as ErrRentalOverlap.
func (r *RentalRepository) UpdateStatus(ctx context.Context, rental *domain.Rental) error {
	query := `
		UPDATE rentals
		SET status = $1, returned_at = $2, completed_at = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		rental.Status, rental.ReturnedAt, rental.CompletedAt, rental.ID,
	).Scan(&rental.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRentalNotFound
		}
		if isExclusionConstraintError(err) {
			return ErrRentalOverlap
		}
		return err
	}
	return nil
}

// CountActiveByTool counts rentals that still hold a claim on the tool.
func (r *RentalRepository) CountActiveByTool(ctx context.Context, toolID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM rentals WHERE tool_id = $1 AND status = ANY($2)`

	count := 0
	err := r.db.GetContext(ctx, &count, query, toolID, activeRentalStatuses)
	return count, err
}

func (r *RentalRepository) HasCompletedRental(ctx context.Context, toolID, renterID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM rentals WHERE tool_id = $1 AND renter_id = $2 AND status = $3)`

	exists := false
	err := r.db.GetContext(ctx, &exists, query, toolID, renterID, domain.RentalStatusCompleted)
	return exists, err
}

// ListByRenter returns the renter's rentals with the owner as counterpart.
func (r *RentalRepository) ListByRenter(ctx context.Context, renterID uuid.UUID) ([]domain.RentalListItem, error) {
	query := `
		SELECT ` + rentalColumns + `,
			tools.name AS tool_name,
			tools.price_per_day_cents AS tool_price_per_day_cents,
			tools.image_url AS tool_image_url,
			owners.name AS counterpart_name,
			owners.email AS counterpart_email
		FROM rentals
		JOIN tools ON tools.id = rentals.tool_id
		JOIN users owners ON owners.id = rentals.owner_id
		WHERE rentals.renter_id = $1
		ORDER BY rentals.created_at DESC
	`

	items := []domain.RentalListItem{}
	if err := r.db.SelectContext(ctx, &items, query, renterID); err != nil {
		return nil, err
	}
	return items, nil
}

// ListByOwner is the owner's inbox with the renter as counterpart.
func (r *RentalRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.RentalListItem, error) {
	query := `
		SELECT ` + rentalColumns + `,
			tools.name AS tool_name,
			tools.price_per_day_cents AS tool_price_per_day_cents,
			tools.image_url AS tool_image_url,
			renters.name AS counterpart_name,
			renters.email AS counterpart_email
		FROM rentals
		JOIN tools ON tools.id = rentals.tool_id
		JOIN users renters ON renters.id = rentals.renter_id
		WHERE rentals.owner_id = $1
		ORDER BY rentals.created_at DESC
	`

	items := []domain.RentalListItem{}
	if err := r.db.SelectContext(ctx, &items, query, ownerID); err != nil {
		return nil, err
	}
	return items, nil
}

// ListOverdue returns approved rentals whose last day is before asOf.
func (r *RentalRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]domain.Rental, error) {
	query := `
		SELECT ` + rentalColumns + `
		FROM rentals
		WHERE rentals.status = $1 AND rentals.end_date < $2
		ORDER BY rentals.end_date ASC
	`

	rentals := []domain.Rental{}
	if err := r.db.SelectContext(ctx, &rentals, query, domain.RentalStatusApproved, domain.TruncateDate(asOf)); err != nil {
		return nil, err
	}
	return rentals, nil
}
