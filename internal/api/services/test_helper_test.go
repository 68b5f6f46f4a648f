package services

import (
	"context"
	"log"
	"os"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"toolrental/internal/events"
	"toolrental/internal/testutil"
)

var testDB *sqlx.DB

func TestMain(m *testing.M) {
	log.Println("[TestMain services] Starting test setup")

	db, err := testutil.SetupTestDB("../../../.env.test", "../../../migrations")
	if err != nil {
		log.Printf("[TestMain services] Database tests will be skipped: %v", err)
	} else {
		testDB = db
		log.Println("[TestMain services] Test database connected successfully")
	}

	code := m.Run()

	if testDB != nil {
		testDB.Close()
	}
	os.Exit(code)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.RentalEvent
}

func (p *recordingPublisher) PublishRentalEvent(_ context.Context, ev events.RentalEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) snapshot() []events.RentalEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.RentalEvent(nil), p.events...)
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}
