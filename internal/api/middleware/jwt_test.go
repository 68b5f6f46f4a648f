package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parsedToken(claims jwtv5.Claims) *jwtv5.Token {
	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	token.Raw, _ = token.SignedString([]byte("test-secret"))
	token.Valid = true
	return token
}

func newEchoContext(ctx context.Context) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/api/rentals/my", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestExtractUserIDFromJWT(t *testing.T) {
	renterID := uuid.New()
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name  string
		value interface{}
		want  uuid.UUID
	}{
		{"valid id claim", parsedToken(jwtv5.MapClaims{"id": renterID.String(), "exp": exp}), renterID},
		{"no token", nil, uuid.Nil},
		{"wrong context type", "Bearer abc", uuid.Nil},
		{"missing id claim", parsedToken(jwtv5.MapClaims{"sub": renterID.String()}), uuid.Nil},
		{"numeric id claim", parsedToken(jwtv5.MapClaims{"id": 42}), uuid.Nil},
		{"id is not a uuid", parsedToken(jwtv5.MapClaims{"id": "renter-1"}), uuid.Nil},
		{"registered claims type", parsedToken(&jwtv5.RegisteredClaims{Subject: renterID.String()}), uuid.Nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newEchoContext(context.Background())
			if tt.value != nil {
				c.Set(JWTContextKey, tt.value)
			}

			called := false
			err := ExtractUserIDFromJWT()(func(c echo.Context) error {
				called = true
				got, err := GetUserIDFromContext(c.Request().Context())
				if tt.want == uuid.Nil {
					assert.Error(t, err)
				} else {
					require.NoError(t, err)
					assert.Equal(t, tt.want, got)
				}
				return nil
			})(c)

			require.NoError(t, err)
			assert.True(t, called, "extraction never blocks the chain")
		})
	}
}

func TestGetUserIDFromContext(t *testing.T) {
	ownerID := uuid.New()

	tests := []struct {
		name    string
		ctx     context.Context
		want    uuid.UUID
		wantErr bool
	}{
		{"uuid value", ContextWithUserID(context.Background(), ownerID), ownerID, false},
		{"string value", context.WithValue(context.Background(), userIDKey, ownerID.String()), ownerID, false},
		{"nil uuid", ContextWithUserID(context.Background(), uuid.Nil), uuid.Nil, true},
		{"bad string", context.WithValue(context.Background(), userIDKey, "owner"), uuid.Nil, true},
		{"other type", context.WithValue(context.Background(), userIDKey, 7), uuid.Nil, true},
		{"empty context", context.Background(), uuid.Nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetUserIDFromContext(tt.ctx)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequireUserID(t *testing.T) {
	handler := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}

	t.Run("missing identity returns 401", func(t *testing.T) {
		c, rec := newEchoContext(context.Background())

		require.NoError(t, RequireUserID()(handler)(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
	})

	t.Run("identity present calls next", func(t *testing.T) {
		c, rec := newEchoContext(ContextWithUserID(context.Background(), uuid.New()))

		require.NoError(t, RequireUserID()(handler)(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("chained after extraction", func(t *testing.T) {
		c, rec := newEchoContext(context.Background())
		c.Set(JWTContextKey, parsedToken(jwtv5.MapClaims{"id": uuid.NewString()}))

		chain := ExtractUserIDFromJWT()(RequireUserID()(handler))
		require.NoError(t, chain(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
