package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Model carries the columns shared by soft-deletable tables.
type Model struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	DeletedAt sql.NullTime `json:"deleted_at,omitempty" db:"deleted_at"`
}

// IsDeleted reports whether the row was soft deleted.
func (m Model) IsDeleted() bool {
	return m.DeletedAt.Valid
}
