package services

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolrental/internal/domain"
	"toolrental/internal/testutil"
)

func TestToolInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		input   ToolInput
		wantErr bool
	}{
		{name: "valid", input: ToolInput{Name: "Drill", PricePerDayCents: 1500}},
		{name: "free tool", input: ToolInput{Name: "Rake"}},
		{name: "missing name", input: ToolInput{PricePerDayCents: 100}, wantErr: true},
		{name: "negative price", input: ToolInput{Name: "Drill", PricePerDayCents: -1}, wantErr: true},
		{name: "bad image url", input: ToolInput{Name: "Drill", ImageURL: "not a url"}, wantErr: true},
		{name: "image url", input: ToolInput{Name: "Drill", ImageURL: "https://example.com/drill.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.input.normalize()
			err := tt.input.validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestToolService_CreateAndGet(t *testing.T) {
	testutil.RequireDB(t, testDB)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	owner := testutil.CreateUser(t, testDB, "owner", "hash")
	service := NewToolService(testDB, rdb)

	tool, err := service.Create(ctx, owner.ID, ToolInput{
		Name:             "  Tile Cutter ",
		Category:         "Masonry",
		PricePerDayCents: 2500,
	})
	require.NoError(t, err)
	assert.Equal(t, "Tile Cutter", tool.Name)
	assert.True(t, tool.Available)

	got, err := service.Get(ctx, tool.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.Name, got.OwnerName)
	assert.True(t, mr.Exists("tool:"+tool.ID.String()))

	_, err = service.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = service.Create(ctx, owner.ID, ToolInput{Name: ""})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestToolService_Update(t *testing.T) {
	testutil.RequireDB(t, testDB)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	owner := testutil.CreateUser(t, testDB, "owner", "hash")
	other := testutil.CreateUser(t, testDB, "other", "hash")
	tool := testutil.CreateTool(t, testDB, owner.ID, "Mixer", 900)
	service := NewToolService(testDB, rdb)

	_, err := service.Get(ctx, tool.ID)
	require.NoError(t, err)

	updated, err := service.Update(ctx, tool.ID, owner.ID, ToolInput{Name: "Cement Mixer", PricePerDayCents: 1200})
	require.NoError(t, err)
	assert.Equal(t, "Cement Mixer", updated.Name)
	assert.False(t, mr.Exists("tool:"+tool.ID.String()))

	got, err := service.Get(ctx, tool.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), got.PricePerDayCents)

	_, err = service.Update(ctx, tool.ID, other.ID, ToolInput{Name: "Stolen"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = service.Update(ctx, uuid.New(), other.ID, ToolInput{Name: "Ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestToolService_Delete(t *testing.T) {
	testutil.RequireDB(t, testDB)
	ctx := context.Background()

	owner := testutil.CreateUser(t, testDB, "owner", "hash")
	renter := testutil.CreateUser(t, testDB, "renter", "hash")
	service := NewToolService(testDB, nil)

	t.Run("not the owner", func(t *testing.T) {
		tool := testutil.CreateTool(t, testDB, owner.ID, "Jack", 300)
		err := service.Delete(ctx, tool.ID, renter.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("open rental blocks delete", func(t *testing.T) {
		tool := testutil.CreateTool(t, testDB, owner.ID, "Jack", 300)
		testutil.CreateRental(t, testDB, tool, renter.ID, "2025-01-01", "2025-01-02", domain.RentalStatusPending)

		err := service.Delete(ctx, tool.ID, owner.ID)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("finished rentals do not block", func(t *testing.T) {
		tool := testutil.CreateTool(t, testDB, owner.ID, "Jack", 300)
		testutil.CreateRental(t, testDB, tool, renter.ID, "2025-01-01", "2025-01-02", domain.RentalStatusCompleted)
		testutil.CreateRental(t, testDB, tool, renter.ID, "2025-02-01", "2025-02-02", domain.RentalStatusRejected)

		require.NoError(t, service.Delete(ctx, tool.ID, owner.ID))

		_, err := service.Get(ctx, tool.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		err = service.Delete(ctx, tool.ID, owner.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestToolService_List(t *testing.T) {
	testutil.RequireDB(t, testDB)
	ctx := context.Background()

	owner := testutil.CreateUser(t, testDB, "owner", "hash")
	service := NewToolService(testDB, nil)

	marker := uuid.NewString()[:8]
	_, err := service.Create(ctx, owner.ID, ToolInput{Name: "Orbital Sander " + marker, Category: "Power Tools", PricePerDayCents: 100})
	require.NoError(t, err)
	_, err = service.Create(ctx, owner.ID, ToolInput{Name: "Belt Sander " + marker, Category: "Power Tools", PricePerDayCents: 300})
	require.NoError(t, err)

	tools, err := service.List(ctx, domain.ToolFilter{Query: marker, Sort: domain.ToolSortPriceDesc})
	require.NoError(t, err)
	require.Len(t, tools, 2)
	assert.Equal(t, int64(300), tools[0].PricePerDayCents)

	mine, err := service.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}
