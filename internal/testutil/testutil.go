package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	"toolrental/internal/config"
	"toolrental/internal/domain"
)

// SetupTestDB connects to the database described by the env file and applies all migrations.
func SetupTestDB(envRelPath, migrationsRelPath string) (*sqlx.DB, error) {
	_ = godotenv.Load(envRelPath)
	cfg := config.Load()

	db, err := sqlx.Connect("postgres", cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("connect to test db: %w", err)
	}

	if err = goose.SetDialect("postgres"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set dialect: %w", err)
	}

	if err = goose.Up(db.DB, migrationsRelPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return db, nil
}

func RequireDB(t *testing.T, db *sqlx.DB) {
	t.Helper()
	if db == nil {
		t.Skip("Test database not initialized")
	}
}

func uniqueSuffix() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), uuid.NewString()[:8])
}

// CreateUser inserts a user with a unique email. The password column holds the given value as is.
func CreateUser(t *testing.T, db *sqlx.DB, name, password string) *domain.User {
	t.Helper()

	user := &domain.User{
		Name:     name,
		Email:    fmt.Sprintf("%s-%s@example.com", name, uniqueSuffix()),
		Password: password,
	}
	err := db.QueryRowx(
		`INSERT INTO users (name, email, password) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`,
		user.Name, user.Email, user.Password,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	require.NoError(t, err)

	return user
}

func CreateTool(t *testing.T, db *sqlx.DB, ownerID uuid.UUID, name string, priceCents int64) *domain.Tool {
	t.Helper()

	tool := &domain.Tool{
		OwnerID:          ownerID,
		Name:             name,
		Category:         "Power Tools",
		Condition:        "good",
		PricePerDayCents: priceCents,
		Available:        true,
	}
	err := db.QueryRowx(
		`INSERT INTO tools (owner_id, name, category, condition, price_per_day_cents)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`,
		tool.OwnerID, tool.Name, tool.Category, tool.Condition, tool.PricePerDayCents,
	).Scan(&tool.ID, &tool.CreatedAt, &tool.UpdatedAt)
	require.NoError(t, err)

	return tool
}

// CreateRental inserts a rental directly in the given status, bypassing the lifecycle checks.
func CreateRental(t *testing.T, db *sqlx.DB, tool *domain.Tool, renterID uuid.UUID, start, end string, status domain.RentalStatus) *domain.Rental {
	t.Helper()

	rental := &domain.Rental{
		ToolID:    tool.ID,
		RenterID:  renterID,
		OwnerID:   tool.OwnerID,
		StartDate: Date(t, start),
		EndDate:   Date(t, end),
		Status:    status,
	}
	err := db.QueryRowx(
		`INSERT INTO rentals (tool_id, renter_id, owner_id, start_date, end_date, status)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at`,
		rental.ToolID, rental.RenterID, rental.OwnerID, rental.StartDate, rental.EndDate, rental.Status,
	).Scan(&rental.ID, &rental.CreatedAt, &rental.UpdatedAt)
	require.NoError(t, err)

	return rental
}

func Date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}
