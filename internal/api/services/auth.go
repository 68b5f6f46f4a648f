package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"toolrental/internal/domain"
	"toolrental/internal/repository"
	"toolrental/internal/util"
)

var (
	ErrInvalidInput       = fmt.Errorf("%w: invalid input", domain.ErrValidation)
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

type RegisterInput struct {
	Name     string `valid:"required,length(1|100)"`
	Email    string `valid:"required,email"`
	Password string `valid:"required,length(6|72)"`
	Phone    string `valid:"optional,length(0|64)"`
	Address  string `valid:"optional,length(0|500)"`
}

type LoginInput struct {
	Email    string `valid:"required,email"`
	Password string `valid:"required"`
}

type AuthService struct {
	userRepo *repository.UserRepository
	jwtKey   string
	tokenTTL time.Duration
}

func NewAuthService(userRepo *repository.UserRepository, jwtKey string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		jwtKey:   jwtKey,
		tokenTTL: tokenTTL,
	}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, string, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if _, err := govalidator.ValidateStruct(input); err != nil {
		return nil, "", ErrInvalidInput
	}

	hashedPassword, err := util.HashPassword(input.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: hashedPassword,
		Phone:    strings.TrimSpace(input.Phone),
		Address:  strings.TrimSpace(input.Address),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.User, string, error) {
	if _, err := govalidator.ValidateStruct(input); err != nil {
		return nil, "", ErrInvalidInput
	}

	user, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := util.CheckPassword(user.Password, input.Password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

func (s *AuthService) GenerateToken(id uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"id":  id.String(),
		"exp": time.Now().Add(s.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtKey))
}

// ParseToken validates a raw token outside the echo-jwt middleware, e.g. from a websocket query string.
func (s *AuthService) ParseToken(raw string) (uuid.UUID, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.jwtKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}

	idStr, ok := claims["id"].(string)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}
