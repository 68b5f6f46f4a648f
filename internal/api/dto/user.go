package dto

import (
	"time"

	"toolrental/internal/domain"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}

func UserFromDomain(user *domain.User) *User {
	if user == nil {
		return nil
	}

	return &User{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		Address:   user.Address,
		CreatedAt: user.CreatedAt,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100" example:"Jane Doe"`
	Email    string `json:"email" validate:"required,email" example:"jane@example.com"`
	Password string `json:"password" validate:"required,min=6,max=72" example:"password"`
	Phone    string `json:"phone" validate:"max=64"`
	Address  string `json:"address" validate:"max=500"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"jane@example.com"`
	Password string `json:"password" validate:"required" example:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type UpdateProfileRequest struct {
	Name            string `json:"name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"max=64"`
	Address         string `json:"address" validate:"max=500"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" validate:"omitempty,min=6,max=72"`
}

type DeleteProfileRequest struct {
	Password string `json:"password" validate:"required"`
}
