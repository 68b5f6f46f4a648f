package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"toolrental/internal/domain"
)

var (
	ErrUserNotFound         = fmt.Errorf("user %w", domain.ErrNotFound)
	ErrToolNotFound         = fmt.Errorf("tool %w", domain.ErrNotFound)
	ErrRentalNotFound       = fmt.Errorf("rental %w", domain.ErrNotFound)
	ErrConversationNotFound = fmt.Errorf("conversation %w", domain.ErrNotFound)

	ErrUserExists       = fmt.Errorf("%w: email already registered", domain.ErrConflict)
	ErrRentalOverlap    = fmt.Errorf("%w: dates overlap an approved rental", domain.ErrConflict)
	ErrRentalForeignKey = fmt.Errorf("%w: referenced record does not exist", domain.ErrNotFound)
)

const (
	pqUniqueViolation     = "23505"
	pqExclusionViolation  = "23P01"
	pqForeignKeyViolation = "23503"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if pqCode(err) == pqUniqueViolation {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "unique constraint") ||
		strings.Contains(errStr, "duplicate key")
}

func isExclusionConstraintError(err error) bool {
	return err != nil && pqCode(err) == pqExclusionViolation
}

func isForeignKeyError(err error) bool {
	return err != nil && pqCode(err) == pqForeignKeyViolation
}

// escapeLike makes user input safe for use inside an ILIKE pattern.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
