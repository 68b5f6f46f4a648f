package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolrental/internal/domain"
	"toolrental/internal/repository"
)

func TestProfileService(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not initialized")
	}
	ctx := context.Background()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	userRepo := repository.NewUserRepository(testDB)
	auth := NewAuthService(userRepo, testJWTKey, time.Hour)
	service := NewProfileService(userRepo, rdb)

	password := "password123"
	user, _, err := auth.Register(ctx, RegisterInput{Name: "Profile", Email: uniqueEmail("profile"), Password: password})
	require.NoError(t, err)

	t.Run("get caches the user", func(t *testing.T) {
		got, err := service.Get(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, got.Email)
		assert.True(t, mr.Exists("user:"+user.ID.String()))

		_, err = service.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("update details", func(t *testing.T) {
		updated, err := service.Update(ctx, user.ID, UpdateProfileInput{
			Name:    "Profile Renamed",
			Email:   user.Email,
			Phone:   " 555-0199 ",
			Address: "1 Main St",
		})
		require.NoError(t, err)
		assert.Equal(t, "555-0199", updated.Phone)
		assert.False(t, mr.Exists("user:"+user.ID.String()))

		got, err := service.Get(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Profile Renamed", got.Name)
	})

	t.Run("new password needs the current one", func(t *testing.T) {
		_, err := service.Update(ctx, user.ID, UpdateProfileInput{
			Name: "Profile", Email: user.Email, NewPassword: "newpassword",
		})
		assert.ErrorIs(t, err, domain.ErrValidation)

		_, err = service.Update(ctx, user.ID, UpdateProfileInput{
			Name: "Profile", Email: user.Email, CurrentPassword: "wrong", NewPassword: "newpassword",
		})
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = service.Update(ctx, user.ID, UpdateProfileInput{
			Name: "Profile", Email: user.Email, CurrentPassword: password, NewPassword: "newpassword",
		})
		require.NoError(t, err)

		_, _, err = auth.Login(ctx, LoginInput{Email: user.Email, Password: "newpassword"})
		assert.NoError(t, err)
		password = "newpassword"
	})

	t.Run("email taken", func(t *testing.T) {
		other, _, err := auth.Register(ctx, RegisterInput{Name: "Other", Email: uniqueEmail("other"), Password: "password123"})
		require.NoError(t, err)

		_, err = service.Update(ctx, user.ID, UpdateProfileInput{Name: "Profile", Email: other.Email})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("delete", func(t *testing.T) {
		err := service.Delete(ctx, user.ID, "")
		assert.ErrorIs(t, err, domain.ErrValidation)

		err = service.Delete(ctx, user.ID, "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		require.NoError(t, service.Delete(ctx, user.ID, password))

		_, err = service.Get(ctx, user.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, _, err = auth.Login(ctx, LoginInput{Email: user.Email, Password: password})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
