package services

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolrental/internal/domain"
	"toolrental/internal/repository"
	"toolrental/internal/testutil"
)

type rentalFixture struct {
	svc    *RentalService
	pub    *recordingPublisher
	owner  *domain.User
	renter *domain.User
	other  *domain.User
	tool   *domain.Tool
}

func newRentalFixture(t *testing.T) *rentalFixture {
	t.Helper()
	testutil.RequireDB(t, testDB)

	owner := testutil.CreateUser(t, testDB, "owner", "hash")
	pub := &recordingPublisher{}
	return &rentalFixture{
		svc:    NewRentalService(testDB, nil, pub),
		pub:    pub,
		owner:  owner,
		renter: testutil.CreateUser(t, testDB, "renter", "hash"),
		other:  testutil.CreateUser(t, testDB, "other", "hash"),
		tool:   testutil.CreateTool(t, testDB, owner.ID, "Hammer Drill", 1500),
	}
}

func (f *rentalFixture) request(t *testing.T, renterID uuid.UUID, start, end string) *domain.Rental {
	t.Helper()
	rental, err := f.svc.Request(context.Background(), RequestRentalInput{
		ToolID:    f.tool.ID,
		RenterID:  renterID,
		StartDate: testutil.Date(t, start),
		EndDate:   testutil.Date(t, end),
	})
	require.NoError(t, err)
	return rental
}

func (f *rentalFixture) toolAvailable(t *testing.T) bool {
	t.Helper()
	tool, err := repository.NewToolRepository(testDB).FindByID(context.Background(), f.tool.ID)
	require.NoError(t, err)
	return tool.Available
}

func TestRentalService_Lifecycle(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()

	r1 := f.request(t, f.renter.ID, "2025-06-01", "2025-06-05")
	assert.Equal(t, domain.RentalStatusPending, r1.Status)
	assert.Equal(t, f.owner.ID, r1.OwnerID)

	r2 := f.request(t, f.other.ID, "2025-06-03", "2025-06-07")

	approved, err := f.svc.Approve(ctx, r1.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusApproved, approved.Status)
	assert.False(t, f.toolAvailable(t))

	_, err = f.svc.Approve(ctx, r2.ID, f.owner.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	rejected, err := f.svc.Reject(ctx, r2.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusRejected, rejected.Status)

	_, err = f.svc.MarkReturned(ctx, r1.ID, f.owner.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	returned, err := f.svc.MarkReturned(ctx, r1.ID, f.renter.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusReturnedPending, returned.Status)
	assert.True(t, returned.ReturnedAt.Valid)

	_, err = f.svc.MarkReturned(ctx, r1.ID, f.renter.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	completed, err := f.svc.ConfirmReturn(ctx, r1.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusCompleted, completed.Status)
	assert.True(t, completed.CompletedAt.Valid)
	assert.True(t, f.toolAvailable(t))

	stored, err := f.svc.Get(ctx, r1.ID, f.renter.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusCompleted, stored.Status)

	var statuses []domain.RentalStatus
	for _, ev := range f.pub.snapshot() {
		if ev.RentalID == r1.ID {
			statuses = append(statuses, ev.Status)
		}
	}
	assert.Equal(t, []domain.RentalStatus{
		domain.RentalStatusPending,
		domain.RentalStatusApproved,
		domain.RentalStatusReturnedPending,
		domain.RentalStatusCompleted,
	}, statuses)
}

func TestRentalService_Request(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()

	t.Run("own tool", func(t *testing.T) {
		_, err := f.svc.Request(ctx, RequestRentalInput{
			ToolID:    f.tool.ID,
			RenterID:  f.owner.ID,
			StartDate: testutil.Date(t, "2025-07-01"),
			EndDate:   testutil.Date(t, "2025-07-02"),
		})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("unknown tool", func(t *testing.T) {
		_, err := f.svc.Request(ctx, RequestRentalInput{
			ToolID:    uuid.New(),
			RenterID:  f.renter.ID,
			StartDate: testutil.Date(t, "2025-07-01"),
			EndDate:   testutil.Date(t, "2025-07-02"),
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("single day", func(t *testing.T) {
		rental := f.request(t, f.renter.ID, "2025-07-10", "2025-07-10")
		assert.Equal(t, 1, rental.Days())
	})

	t.Run("time of day is dropped", func(t *testing.T) {
		rental, err := f.svc.Request(ctx, RequestRentalInput{
			ToolID:    f.tool.ID,
			RenterID:  f.renter.ID,
			StartDate: time.Date(2025, 7, 20, 15, 30, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 7, 21, 8, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		assert.Equal(t, testutil.Date(t, "2025-07-20"), rental.StartDate)
	})

	t.Run("overlapping requests are accepted while pending", func(t *testing.T) {
		f.request(t, f.renter.ID, "2025-08-01", "2025-08-05")
		f.request(t, f.other.ID, "2025-08-01", "2025-08-05")
	})
}

func TestRentalService_RequestUnavailableTool(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()

	r1 := f.request(t, f.renter.ID, "2025-06-01", "2025-06-05")
	_, err := f.svc.Approve(ctx, r1.ID, f.owner.ID)
	require.NoError(t, err)

	_, err = f.svc.Request(ctx, RequestRentalInput{
		ToolID:    f.tool.ID,
		RenterID:  f.other.ID,
		StartDate: testutil.Date(t, "2025-09-01"),
		EndDate:   testutil.Date(t, "2025-09-02"),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRentalService_ApproveAdjacentRanges(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()

	r1 := f.request(t, f.renter.ID, "2025-06-01", "2025-06-05")
	r2 := f.request(t, f.other.ID, "2025-06-06", "2025-06-08")
	r3 := f.request(t, f.other.ID, "2025-06-05", "2025-06-06")

	_, err := f.svc.Approve(ctx, r1.ID, f.owner.ID)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, r2.ID, f.owner.ID)
	require.NoError(t, err)

	// Shares the last day of r1 and the first day of r2.
	_, err = f.svc.Approve(ctx, r3.ID, f.owner.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRentalService_ConflictKeepsRentalPending(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()

	r1 := f.request(t, f.renter.ID, "2025-06-01", "2025-06-05")
	r2 := f.request(t, f.other.ID, "2025-06-02", "2025-06-03")
	_, err := f.svc.Approve(ctx, r1.ID, f.owner.ID)
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, r2.ID, f.owner.ID)
	require.ErrorIs(t, err, domain.ErrConflict)

	stored, err := f.svc.Get(ctx, r2.ID, f.other.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusPending, stored.Status)
}

func TestRentalService_Get(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()
	rental := f.request(t, f.renter.ID, "2025-06-01", "2025-06-02")

	_, err := f.svc.Get(ctx, rental.ID, f.owner.ID)
	assert.NoError(t, err)

	_, err = f.svc.Get(ctx, rental.ID, f.other.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Get(ctx, uuid.New(), f.owner.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRentalService_Lists(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()
	rental := f.request(t, f.renter.ID, "2025-06-01", "2025-06-02")

	mine, err := f.svc.ListMine(ctx, f.renter.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, rental.ID, mine[0].ID)
	assert.Equal(t, f.tool.Name, mine[0].ToolName)
	assert.Equal(t, f.owner.Name, mine[0].CounterpartName)

	requests, err := f.svc.ListRequests(ctx, f.owner.ID)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, f.renter.Name, requests[0].CounterpartName)

	none, err := f.svc.ListMine(ctx, f.other.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRentalService_ListOverdue(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()

	overdue := testutil.CreateRental(t, testDB, f.tool, f.renter.ID, "2020-01-01", "2020-01-03", domain.RentalStatusApproved)
	testutil.CreateRental(t, testDB, f.tool, f.other.ID, "2020-02-01", "2020-02-03", domain.RentalStatusReturnedPending)

	list, err := f.svc.ListOverdue(ctx, testutil.Date(t, "2020-01-10"))
	require.NoError(t, err)

	var found bool
	for _, r := range list {
		assert.Equal(t, domain.RentalStatusApproved, r.Status)
		if r.ID == overdue.ID {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRentalService_ConcurrentApprovals(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()

	const n = 8
	pending := make([]*domain.Rental, n)
	for i := range pending {
		renter := testutil.CreateUser(t, testDB, "racer", "hash")
		pending[i] = f.request(t, renter.ID, "2025-10-01", "2025-10-04")
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
		others    []error
	)
	for _, rental := range pending {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := f.svc.Approve(ctx, id, f.owner.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrConflict):
				conflicts++
			default:
				others = append(others, err)
			}
		}(rental.ID)
	}
	wg.Wait()

	assert.Empty(t, others)
	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, conflicts)
}

func TestRentalService_ApprovedRangesNeverOverlap(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	base := testutil.Date(t, "2026-01-01")

	var pending []*domain.Rental
	for i := 0; i < 30; i++ {
		start := base.AddDate(0, 0, rng.Intn(60))
		end := start.AddDate(0, 0, rng.Intn(6))
		rental, err := f.svc.Request(ctx, RequestRentalInput{
			ToolID:    f.tool.ID,
			RenterID:  f.renter.ID,
			StartDate: start,
			EndDate:   end,
		})
		require.NoError(t, err)
		pending = append(pending, rental)
	}

	var approved []*domain.Rental
	for _, rental := range pending {
		got, err := f.svc.Approve(ctx, rental.ID, f.owner.ID)
		if err != nil {
			require.ErrorIs(t, err, domain.ErrConflict)
			continue
		}
		approved = append(approved, got)
	}
	require.NotEmpty(t, approved)

	for i := range approved {
		for j := i + 1; j < len(approved); j++ {
			assert.False(t, approved[i].Overlaps(approved[j]),
				"approved rentals %s and %s overlap", approved[i].ID, approved[j].ID)
		}
	}
}
