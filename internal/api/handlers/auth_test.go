package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolrental/internal/api/dto"
)

func setupAuthHandlerTest(t *testing.T) *AuthHandler {
	if testDB == nil {
		t.Skip("Test database not initialized")
	}
	return NewAuthHandler(testDB, nil, "test-secret", time.Hour)
}

func TestAuthHandler_Register(t *testing.T) {
	e := newTestEcho()

	t.Run("invalid JSON returns 400", func(t *testing.T) {
		handler := NewAuthHandler(nil, nil, "test-secret", time.Hour)
		c, rec := newJSONContext(e, http.MethodPost, "/api/auth/register", "{", uuid.Nil)

		require.NoError(t, handler.Register(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation error returns 400", func(t *testing.T) {
		handler := NewAuthHandler(nil, nil, "test-secret", time.Hour)
		body := dto.RegisterRequest{Name: "x", Email: "not-an-email", Password: "short"}
		c, rec := newJSONContext(e, http.MethodPost, "/api/auth/register", body, uuid.Nil)

		require.NoError(t, handler.Register(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("successful register returns 201 and token", func(t *testing.T) {
		handler := setupAuthHandlerTest(t)
		email := fmt.Sprintf("user%d@test.com", time.Now().UnixNano())
		body := dto.RegisterRequest{Name: "New User", Email: email, Password: "password123"}
		c, rec := newJSONContext(e, http.MethodPost, "/api/auth/register", body, uuid.Nil)

		require.NoError(t, handler.Register(c))
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp dto.AuthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		require.NotNil(t, resp.User)
		assert.Equal(t, email, resp.User.Email)
		assert.NotContains(t, rec.Body.String(), "password123")
	})

	t.Run("duplicate email returns 409", func(t *testing.T) {
		handler := setupAuthHandlerTest(t)
		email := fmt.Sprintf("dup%d@test.com", time.Now().UnixNano())
		body := dto.RegisterRequest{Name: "Dup", Email: email, Password: "password123"}

		c, rec := newJSONContext(e, http.MethodPost, "/api/auth/register", body, uuid.Nil)
		require.NoError(t, handler.Register(c))
		require.Equal(t, http.StatusCreated, rec.Code)

		c, rec = newJSONContext(e, http.MethodPost, "/api/auth/register", body, uuid.Nil)
		require.NoError(t, handler.Register(c))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestAuthHandler_LoginAndMe(t *testing.T) {
	handler := setupAuthHandlerTest(t)
	e := newTestEcho()

	email := fmt.Sprintf("login%d@test.com", time.Now().UnixNano())
	c, rec := newJSONContext(e, http.MethodPost, "/api/auth/register",
		dto.RegisterRequest{Name: "Login", Email: email, Password: "password123"}, uuid.Nil)
	require.NoError(t, handler.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var registered dto.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))

	t.Run("successful login", func(t *testing.T) {
		c, rec := newJSONContext(e, http.MethodPost, "/api/auth/login",
			dto.LoginRequest{Email: email, Password: "password123"}, uuid.Nil)
		require.NoError(t, handler.Login(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong password returns 401", func(t *testing.T) {
		c, rec := newJSONContext(e, http.MethodPost, "/api/auth/login",
			dto.LoginRequest{Email: email, Password: "wrong"}, uuid.Nil)
		require.NoError(t, handler.Login(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid credentials", decodeError(t, rec))
	})

	t.Run("me returns the caller", func(t *testing.T) {
		userID := uuid.MustParse(registered.User.ID)
		c, rec := newJSONContext(e, http.MethodGet, "/api/auth/me", nil, userID)
		require.NoError(t, handler.Me(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var user dto.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
		assert.Equal(t, email, user.Email)
	})

	t.Run("me without identity returns 401", func(t *testing.T) {
		c, rec := newJSONContext(e, http.MethodGet, "/api/auth/me", nil, uuid.Nil)
		require.NoError(t, handler.Me(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
