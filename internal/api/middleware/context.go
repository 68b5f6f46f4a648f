package middleware

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type contextKey string

const userIDKey contextKey = "userID"

var errUnauthorized = errors.New("unauthorized")

// ContextWithUserID returns a new context carrying the caller's user ID.
func ContextWithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserIDFromContext returns the caller set by ExtractUserIDFromJWT.
// String values are accepted for tests that build contexts by hand.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	v := ctx.Value(userIDKey)
	if v == nil {
		return uuid.Nil, errUnauthorized
	}

	switch id := v.(type) {
	case uuid.UUID:
		if id == uuid.Nil {
			return uuid.Nil, errUnauthorized
		}
		return id, nil
	case string:
		parsed, err := uuid.Parse(id)
		if err != nil {
			return uuid.Nil, errUnauthorized
		}
		return parsed, nil
	default:
		return uuid.Nil, errUnauthorized
	}
}
