package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"toolrental/internal/domain"
	"toolrental/internal/logger"
	"toolrental/internal/metrics"
)

const jobTimeout = time.Minute

// OverdueLister is satisfied by services.RentalService.
type OverdueLister interface {
	ListOverdue(ctx context.Context, asOf time.Time) ([]domain.Rental, error)
}

// Scheduler runs periodic maintenance jobs. The overdue scan only reports;
// it never changes rental state.
type Scheduler struct {
	cron    *cron.Cron
	rentals OverdueLister
	now     func() time.Time
	log     *slog.Logger
}

func New(rentals OverdueLister) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithSeconds(),
		),
		rentals: rentals,
		now:     time.Now,
		log:     logger.WithComponent("scheduler"),
	}
}

// Register adds the overdue scan under the given six-field cron spec.
func (s *Scheduler) Register(overdueSpec string) error {
	if _, err := s.cron.AddFunc(overdueSpec, s.scanOverdue); err != nil {
		return fmt.Errorf("register overdue scan %q: %w", overdueSpec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) scanOverdue() {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("overdue scan panicked", "panic", rec)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.ScanOverdue(ctx); err != nil {
		s.log.Error("overdue scan failed", "error", err)
	}
}

// ScanOverdue logs every approved rental whose end date is before today and
// publishes the count as a gauge.
func (s *Scheduler) ScanOverdue(ctx context.Context) (int, error) {
	today := domain.TruncateDate(s.now())

	rentals, err := s.rentals.ListOverdue(ctx, today)
	if err != nil {
		return 0, err
	}

	for _, rental := range rentals {
		s.log.Warn("rental overdue",
			"rental_id", rental.ID,
			"tool_id", rental.ToolID,
			"renter_id", rental.RenterID,
			"end_date", rental.EndDate.Format("2006-01-02"),
			"days_late", int(today.Sub(domain.TruncateDate(rental.EndDate)).Hours()/24),
		)
	}

	metrics.SetOverdueRentals(len(rentals))
	s.log.Info("overdue scan finished", "overdue", len(rentals))
	return len(rentals), nil
}
