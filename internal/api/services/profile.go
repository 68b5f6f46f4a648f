package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"toolrental/internal/domain"
	"toolrental/internal/logger"
	r "toolrental/internal/redis"
	"toolrental/internal/repository"
	"toolrental/internal/util"
)

type UpdateProfileInput struct {
	Name            string `valid:"required,length(1|100)"`
	Email           string `valid:"required,email"`
	Phone           string `valid:"optional,length(0|64)"`
	Address         string `valid:"optional,length(0|500)"`
	CurrentPassword string `valid:"-"`
	NewPassword     string `valid:"optional,length(6|72)"`
}

type ProfileService struct {
	userRepo  *repository.UserRepository
	userCache r.Cache[domain.User]
}

func NewProfileService(userRepo *repository.UserRepository, rdb *goredis.Client) *ProfileService {
	return &ProfileService{
		userRepo:  userRepo,
		userCache: r.NewJSONCache[domain.User](rdb, "user", 5*time.Second),
	}
}

func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userCache.Get(ctx, userID.String())
	if err != nil {
		logger.Warn("user cache get failed", "user_id", userID, "error", err)
	}
	if user != nil {
		return user, nil
	}

	user, err = s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	_ = s.userCache.Set(ctx, userID.String(), user)
	return user, nil
}

// Update changes contact details. A new password is only accepted together with the current one.
func (s *ProfileService) Update(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*domain.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if _, err := govalidator.ValidateStruct(input); err != nil {
		return nil, ErrInvalidInput
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var newHash string
	if input.NewPassword != "" {
		if input.CurrentPassword == "" {
			return nil, fmt.Errorf("%w: current password required to set a new password", domain.ErrValidation)
		}
		if err := util.CheckPassword(user.Password, input.CurrentPassword); err != nil {
			return nil, ErrInvalidCredentials
		}
		if newHash, err = util.HashPassword(input.NewPassword); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}

	user.Name = input.Name
	user.Email = input.Email
	user.Phone = strings.TrimSpace(input.Phone)
	user.Address = strings.TrimSpace(input.Address)

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	if newHash != "" {
		if err := s.userRepo.UpdatePassword(ctx, userID, newHash); err != nil {
			return nil, err
		}
	}

	_ = s.userCache.Delete(ctx, userID.String())
	return user, nil
}

func (s *ProfileService) Delete(ctx context.Context, userID uuid.UUID, password string) error {
	if password == "" {
		return fmt.Errorf("%w: password required to delete account", domain.ErrValidation)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := util.CheckPassword(user.Password, password); err != nil {
		return ErrInvalidCredentials
	}

	if err := s.userRepo.SoftDelete(ctx, userID); err != nil {
		return err
	}

	_ = s.userCache.Delete(ctx, userID.String())
	logger.InfoContext(ctx, "user deleted", "user_id", userID)
	return nil
}
