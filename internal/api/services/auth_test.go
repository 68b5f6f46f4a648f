package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolrental/internal/domain"
	"toolrental/internal/repository"
)

const testJWTKey = "test-jwt-secret-key"

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s%d@test.com", prefix, time.Now().UnixNano())
}

func TestAuthService_Register(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not initialized")
	}

	service := NewAuthService(repository.NewUserRepository(testDB), testJWTKey, time.Hour)

	t.Run("successful register", func(t *testing.T) {
		input := RegisterInput{
			Name:     "  Alice  ",
			Email:    uniqueEmail("alice"),
			Password: "password123",
			Phone:    "555-0100",
		}

		user, token, err := service.Register(context.Background(), input)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.NotEmpty(t, token)
		assert.Equal(t, "Alice", user.Name)
		assert.Equal(t, input.Email, user.Email)
		assert.NotEqual(t, input.Password, user.Password)

		parsed, err := jwtv5.Parse(token, func(t *jwtv5.Token) (interface{}, error) {
			return []byte(testJWTKey), nil
		})
		require.NoError(t, err)
		require.True(t, parsed.Valid)

		claims, ok := parsed.Claims.(jwtv5.MapClaims)
		require.True(t, ok)
		assert.Equal(t, user.ID.String(), claims["id"])
	})

	t.Run("duplicate email ignores case", func(t *testing.T) {
		email := uniqueEmail("dup")
		_, _, err := service.Register(context.Background(), RegisterInput{Name: "Dup", Email: email, Password: "password123"})
		require.NoError(t, err)

		_, _, err = service.Register(context.Background(), RegisterInput{
			Name:     "Dup Again",
			Email:    "DUP" + email[3:],
			Password: "password123",
		})
		assert.ErrorIs(t, err, repository.ErrUserExists)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("invalid input - bad email", func(t *testing.T) {
		_, _, err := service.Register(context.Background(), RegisterInput{
			Name:     "Bob",
			Email:    "not-an-email",
			Password: "password123",
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("invalid input - short password", func(t *testing.T) {
		_, _, err := service.Register(context.Background(), RegisterInput{
			Name:     "Bob",
			Email:    uniqueEmail("short"),
			Password: "ab",
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("invalid input - blank name", func(t *testing.T) {
		_, _, err := service.Register(context.Background(), RegisterInput{
			Name:     "   ",
			Email:    uniqueEmail("blank"),
			Password: "password123",
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestAuthService_Login(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not initialized")
	}

	service := NewAuthService(repository.NewUserRepository(testDB), testJWTKey, time.Hour)

	password := "password123"
	user, _, err := service.Register(context.Background(), RegisterInput{
		Name:     "Login User",
		Email:    uniqueEmail("login"),
		Password: password,
	})
	require.NoError(t, err)

	t.Run("successful login", func(t *testing.T) {
		result, token, err := service.Login(context.Background(), LoginInput{Email: user.Email, Password: password})
		require.NoError(t, err)
		assert.Equal(t, user.ID, result.ID)

		id, err := service.ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, id)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := service.Login(context.Background(), LoginInput{Email: user.Email, Password: "wrong-password"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := service.Login(context.Background(), LoginInput{Email: uniqueEmail("ghost"), Password: password})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("invalid input - empty fields", func(t *testing.T) {
		_, _, err := service.Login(context.Background(), LoginInput{})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestAuthService_Tokens(t *testing.T) {
	service := NewAuthService(nil, testJWTKey, 72*time.Hour)
	id := uuid.New()

	t.Run("token has expiry claim", func(t *testing.T) {
		token, err := service.GenerateToken(id)
		require.NoError(t, err)

		parsed, err := jwtv5.Parse(token, func(tok *jwtv5.Token) (interface{}, error) {
			assert.Equal(t, jwtv5.SigningMethodHS256, tok.Method)
			return []byte(testJWTKey), nil
		})
		require.NoError(t, err)

		exp, err := parsed.Claims.GetExpirationTime()
		require.NoError(t, err)
		require.NotNil(t, exp)
		assert.WithinDuration(t, time.Now().Add(72*time.Hour), exp.Time, 5*time.Second)
	})

	t.Run("parse round trip", func(t *testing.T) {
		token, err := service.GenerateToken(id)
		require.NoError(t, err)

		got, err := service.ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})

	t.Run("wrong key", func(t *testing.T) {
		token, err := NewAuthService(nil, "other-key", time.Hour).GenerateToken(id)
		require.NoError(t, err)

		_, err = service.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := NewAuthService(nil, testJWTKey, -time.Minute).GenerateToken(id)
		require.NoError(t, err)

		_, err = service.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := service.ParseToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing id claim", func(t *testing.T) {
		raw := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		token, err := raw.SignedString([]byte(testJWTKey))
		require.NoError(t, err)

		_, err = service.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
