package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"toolrental/internal/domain"
	"toolrental/internal/events"
	"toolrental/internal/logger"
	"toolrental/internal/metrics"
	r "toolrental/internal/redis"
	"toolrental/internal/repository"
)

var tracer = otel.Tracer("toolrental/services")

type RequestRentalInput struct {
	ToolID    uuid.UUID
	RenterID  uuid.UUID
	StartDate time.Time
	EndDate   time.Time
}

type actorRole int

const (
	roleOwner actorRole = iota
	roleRenter
)

func (a actorRole) String() string {
	if a == roleOwner {
		return "tool owner"
	}
	return "renter"
}

// transition describes one edge of the rental lifecycle.
type transition struct {
	name  string
	actor actorRole
	from  domain.RentalStatus
	to    domain.RentalStatus
	// apply runs inside the transaction after the common checks and before the status is written.
	apply func(ctx context.Context, tx *sqlx.Tx, rental *domain.Rental, now time.Time) error
}

type RentalService struct {
	db        *sqlx.DB
	rentals   *repository.RentalRepository
	tools     *repository.ToolRepository
	toolCache r.Cache[domain.Tool]
	publisher events.Publisher
	now       func() time.Time
}

func NewRentalService(db *sqlx.DB, rdb *goredis.Client, publisher events.Publisher) *RentalService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &RentalService{
		db:        db,
		rentals:   repository.NewRentalRepository(db),
		tools:     repository.NewToolRepository(db),
		toolCache: NewToolCache(rdb),
		publisher: publisher,
		now:       time.Now,
	}
}

// Request creates a pending rental. Date overlap is not checked here; it is enforced at approval.
func (s *RentalService) Request(ctx context.Context, input RequestRentalInput) (*domain.Rental, error) {
	ctx, span := tracer.Start(ctx, "RentalService.Request", trace.WithAttributes(
		attribute.String("tool_id", input.ToolID.String()),
	))
	defer span.End()

	start := domain.TruncateDate(input.StartDate)
	end := domain.TruncateDate(input.EndDate)
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("%w: start and end dates are required", domain.ErrValidation)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date is before start date", domain.ErrValidation)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tool, err := repository.NewToolRepository(tx).FindByIDForUpdate(ctx, input.ToolID)
	if err != nil {
		return nil, err
	}
	if !tool.Available {
		return nil, fmt.Errorf("%w: tool not available", domain.ErrValidation)
	}
	if tool.OwnedBy(input.RenterID) {
		return nil, fmt.Errorf("%w: you cannot rent your own tool", domain.ErrForbidden)
	}

	rental := &domain.Rental{
		ToolID:    tool.ID,
		RenterID:  input.RenterID,
		OwnerID:   tool.OwnerID,
		StartDate: start,
		EndDate:   end,
		Status:    domain.RentalStatusPending,
	}
	if err := repository.NewRentalRepository(tx).Create(ctx, rental); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "rental requested",
		"rental_id", rental.ID, "tool_id", rental.ToolID, "renter_id", rental.RenterID,
		"start_date", start.Format(time.DateOnly), "end_date", end.Format(time.DateOnly))
	metrics.RecordRentalTransition(string(domain.RentalStatusPending), "ok")
	s.publish(ctx, rental, "")

	return rental, nil
}

// Approve is the only place where approved ranges are admitted. The rental and the tool
// rows stay locked until commit, so concurrent approvals for one tool run one at a time.
func (s *RentalService) Approve(ctx context.Context, rentalID, ownerID uuid.UUID) (*domain.Rental, error) {
	return s.transition(ctx, rentalID, ownerID, transition{
		name:  "Approve",
		actor: roleOwner,
		from:  domain.RentalStatusPending,
		to:    domain.RentalStatusApproved,
		apply: func(ctx context.Context, tx *sqlx.Tx, rental *domain.Rental, _ time.Time) error {
			tools := repository.NewToolRepository(tx)
			if _, err := tools.FindByIDForUpdate(ctx, rental.ToolID); err != nil {
				return err
			}

			overlap, err := repository.NewRentalRepository(tx).HasApprovedOverlap(ctx,
				rental.ToolID, rental.StartDate, rental.EndDate, rental.ID)
			if err != nil {
				return err
			}
			if overlap {
				return repository.ErrRentalOverlap
			}

			return tools.SetAvailable(ctx, rental.ToolID, false)
		},
	})
}

func (s *RentalService) Reject(ctx context.Context, rentalID, ownerID uuid.UUID) (*domain.Rental, error) {
	return s.transition(ctx, rentalID, ownerID, transition{
		name:  "Reject",
		actor: roleOwner,
		from:  domain.RentalStatusPending,
		to:    domain.RentalStatusRejected,
	})
}

func (s *RentalService) MarkReturned(ctx context.Context, rentalID, renterID uuid.UUID) (*domain.Rental, error) {
	return s.transition(ctx, rentalID, renterID, transition{
		name:  "MarkReturned",
		actor: roleRenter,
		from:  domain.RentalStatusApproved,
		to:    domain.RentalStatusReturnedPending,
		apply: func(_ context.Context, _ *sqlx.Tx, rental *domain.Rental, now time.Time) error {
			rental.ReturnedAt = sql.NullTime{Time: now, Valid: true}
			return nil
		},
	})
}

func (s *RentalService) ConfirmReturn(ctx context.Context, rentalID, ownerID uuid.UUID) (*domain.Rental, error) {
	return s.transition(ctx, rentalID, ownerID, transition{
		name:  "ConfirmReturn",
		actor: roleOwner,
		from:  domain.RentalStatusReturnedPending,
		to:    domain.RentalStatusCompleted,
		apply: func(ctx context.Context, tx *sqlx.Tx, rental *domain.Rental, now time.Time) error {
			rental.CompletedAt = sql.NullTime{Time: now, Valid: true}
			return repository.NewToolRepository(tx).SetAvailable(ctx, rental.ToolID, true)
		},
	})
}

// transition checks in a fixed order: not found, forbidden, invalid state, then conflict.
func (s *RentalService) transition(ctx context.Context, rentalID, actorID uuid.UUID, t transition) (rental *domain.Rental, err error) {
	ctx, span := tracer.Start(ctx, "RentalService."+t.name, trace.WithAttributes(
		attribute.String("rental_id", rentalID.String()),
		attribute.String("target_status", string(t.to)),
	))
	defer func() {
		metrics.RecordRentalTransition(string(t.to), outcome(err))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rental, err = repository.NewRentalRepository(tx).FindByIDForUpdate(ctx, rentalID)
	if err != nil {
		return nil, err
	}

	if !s.isActor(rental, actorID, t.actor) {
		return nil, fmt.Errorf("%w: only the %s can %s this rental", domain.ErrForbidden, t.actor, verb(t.to))
	}

	if rental.Status != t.from || !rental.Status.CanTransitionTo(t.to) {
		return nil, fmt.Errorf("%w: rental is %s, expected %s", domain.ErrInvalidState, rental.Status, t.from)
	}

	previous := rental.Status
	now := s.now().UTC()
	if t.apply != nil {
		if err := t.apply(ctx, tx, rental, now); err != nil {
			return nil, err
		}
	}

	rental.Status = t.to
	if err := repository.NewRentalRepository(tx).UpdateStatus(ctx, rental); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if t.to == domain.RentalStatusApproved || t.to == domain.RentalStatusCompleted {
		if err := s.toolCache.Delete(ctx, rental.ToolID.String()); err != nil {
			logger.Warn("tool cache delete failed", "tool_id", rental.ToolID, "error", err)
		}
	}

	logger.InfoContext(ctx, "rental status changed",
		"rental_id", rental.ID, "tool_id", rental.ToolID, "from", previous, "status", rental.Status)
	s.publish(ctx, rental, previous)

	return rental, nil
}

func (s *RentalService) isActor(rental *domain.Rental, actorID uuid.UUID, role actorRole) bool {
	if role == roleOwner {
		return rental.OwnerID == actorID
	}
	return rental.RenterID == actorID
}

func (s *RentalService) publish(ctx context.Context, rental *domain.Rental, previous domain.RentalStatus) {
	if err := s.publisher.PublishRentalEvent(ctx, events.NewRentalEvent(rental, previous)); err != nil {
		logger.Warn("rental event publish failed", "rental_id", rental.ID, "status", rental.Status, "error", err)
	}
}

// Get returns the rental to either participant.
func (s *RentalService) Get(ctx context.Context, rentalID, userID uuid.UUID) (*domain.Rental, error) {
	rental, err := s.rentals.FindByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if !rental.IsParticipant(userID) {
		return nil, fmt.Errorf("%w: not a participant of this rental", domain.ErrForbidden)
	}
	return rental, nil
}

func (s *RentalService) ListMine(ctx context.Context, renterID uuid.UUID) ([]domain.RentalListItem, error) {
	return s.rentals.ListByRenter(ctx, renterID)
}

func (s *RentalService) ListRequests(ctx context.Context, ownerID uuid.UUID) ([]domain.RentalListItem, error) {
	return s.rentals.ListByOwner(ctx, ownerID)
}

// ListOverdue is used by the nightly scan; it only reports.
func (s *RentalService) ListOverdue(ctx context.Context, asOf time.Time) ([]domain.Rental, error) {
	return s.rentals.ListOverdue(ctx, asOf)
}

func verb(to domain.RentalStatus) string {
	switch to {
	case domain.RentalStatusApproved:
		return "approve"
	case domain.RentalStatusRejected:
		return "reject"
	case domain.RentalStatusReturnedPending:
		return "return"
	case domain.RentalStatusCompleted:
		return "confirm the return of"
	default:
		return "change"
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	default:
		return "error"
	}
}
