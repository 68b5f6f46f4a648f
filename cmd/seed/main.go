package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"toolrental/internal/config"
	"toolrental/internal/domain"
	"toolrental/internal/repository"
	"toolrental/internal/util"
)

const seedPassword = "password"

type seedUser struct {
	name    string
	email   string
	phone   string
	address string
}

type seedTool struct {
	owner       string
	name        string
	description string
	category    string
	condition   string
	priceCents  int64
}

var users = []seedUser{
	{name: "Alice Martin", email: "alice@example.com", phone: "+1 555 0101", address: "12 Oak Street"},
	{name: "Bob Chen", email: "bob@example.com", phone: "+1 555 0102", address: "48 Elm Avenue"},
	{name: "Carol Diaz", email: "carol@example.com", phone: "+1 555 0103", address: "7 Pine Road"},
}

var tools = []seedTool{
	{"alice@example.com", "Cordless Drill", "18V drill with two batteries and charger", "Power Tools", "good", 1500},
	{"alice@example.com", "Circular Saw", "7-1/4 inch blade, laser guide", "Power Tools", "like new", 2500},
	{"alice@example.com", "Extension Ladder", "24 ft aluminium ladder", "Ladders", "fair", 2000},
	{"bob@example.com", "Pressure Washer", "2000 PSI electric pressure washer", "Cleaning", "good", 3500},
	{"bob@example.com", "Tile Cutter", "Manual tile cutter up to 24 inch", "Hand Tools", "good", 1200},
	{"carol@example.com", "Lawn Mower", "Self-propelled gas mower", "Garden", "good", 3000},
	{"carol@example.com", "Hedge Trimmer", "Cordless 22 inch hedge trimmer", "Garden", "like new", 1800},
}

func main() {
	truncate := flag.Bool("truncate", false, "Remove all marketplace data before seeding")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded, relying on environment")
	}

	cfg := config.Load()
	db, err := repository.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	log.Println("Starting seed process...")

	if *truncate {
		if err := truncateTables(ctx, db.DB()); err != nil {
			log.Fatalf("Failed to truncate tables: %v", err)
		}
	}

	byEmail, err := seedUsers(ctx, db.DB())
	if err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	created, err := seedTools(ctx, db.DB(), byEmail)
	if err != nil {
		log.Fatalf("Failed to seed tools: %v", err)
	}

	if len(created) > 0 {
		if err := seedHistory(ctx, db.DB(), created[0], byEmail["bob@example.com"]); err != nil {
			log.Printf("Failed to seed rental history: %v", err)
		}
	}

	log.Println("Seed process completed!")
}

func truncateTables(ctx context.Context, db *sqlx.DB) error {
	log.Println("Truncating marketplace tables...")

	tables := []string{"messages", "conversations", "tool_reviews", "rentals", "tools", "users"}
	for _, table := range tables {
		query := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
		log.Printf("Truncated table: %s", table)
	}
	return nil
}

func seedUsers(ctx context.Context, db *sqlx.DB) (map[string]*domain.User, error) {
	log.Println("Seeding users...")

	hashed, err := util.HashPassword(seedPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	result := make(map[string]*domain.User, len(users))

	for _, u := range users {
		existing, err := userRepo.FindByEmail(ctx, u.email)
		if err == nil {
			log.Printf("User %s already exists, skipping", u.email)
			result[u.email] = existing
			continue
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}

		user := &domain.User{
			Name:     u.name,
			Email:    u.email,
			Password: hashed,
			Phone:    u.phone,
			Address:  u.address,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("create user %s: %w", u.email, err)
		}
		log.Printf("Created user %s (password %q)", u.email, seedPassword)
		result[u.email] = user
	}
	return result, nil
}

func seedTools(ctx context.Context, db *sqlx.DB, owners map[string]*domain.User) ([]*domain.Tool, error) {
	log.Println("Seeding tools...")

	toolRepo := repository.NewToolRepository(db)
	var created []*domain.Tool

	for _, t := range tools {
		owner, ok := owners[t.owner]
		if !ok {
			continue
		}

		existing, err := toolRepo.ListByOwner(ctx, owner.ID)
		if err != nil {
			return nil, err
		}
		if hasTool(existing, t.name) {
			log.Printf("Tool %q already listed by %s, skipping", t.name, t.owner)
			continue
		}

		tool := &domain.Tool{
			OwnerID:          owner.ID,
			Name:             t.name,
			Description:      t.description,
			Category:         t.category,
			Condition:        t.condition,
			PricePerDayCents: t.priceCents,
			Available:        true,
		}
		if err := toolRepo.Create(ctx, tool); err != nil {
			return nil, fmt.Errorf("create tool %q: %w", t.name, err)
		}
		log.Printf("Created tool %q for %s", t.name, t.owner)
		created = append(created, tool)
	}
	return created, nil
}

// seedHistory gives the first tool a completed rental and a review so the
// review summary has data.
func seedHistory(ctx context.Context, db *sqlx.DB, tool *domain.Tool, renter *domain.User) error {
	if renter == nil || renter.ID == tool.OwnerID {
		return nil
	}

	start := domain.TruncateDate(time.Now().AddDate(0, 0, -14))
	rental := &domain.Rental{
		ToolID:    tool.ID,
		RenterID:  renter.ID,
		OwnerID:   tool.OwnerID,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 2),
		Status:    domain.RentalStatusCompleted,
	}
	if err := repository.NewRentalRepository(db).Create(ctx, rental); err != nil {
		return fmt.Errorf("create rental: %w", err)
	}

	comment := "Worked great, returned on time."
	review := &domain.Review{ToolID: tool.ID, ReviewerID: renter.ID, Rating: 5, Comment: &comment}
	if err := repository.NewReviewRepository(db).Upsert(ctx, review); err != nil {
		return fmt.Errorf("create review: %w", err)
	}

	log.Printf("Created completed rental and review for %q", tool.Name)
	return nil
}

func hasTool(tools []domain.Tool, name string) bool {
	for _, t := range tools {
		if t.Name == name {
			return true
		}
	}
	return false
}
