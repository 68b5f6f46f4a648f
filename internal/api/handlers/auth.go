package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"toolrental/internal/api/dto"
	"toolrental/internal/api/services"
	"toolrental/internal/repository"
)

type AuthHandler struct {
	authService    *services.AuthService
	profileService *services.ProfileService
}

func NewAuthHandler(db *sqlx.DB, rdb *redis.Client, jwtKey string, tokenTTL time.Duration) *AuthHandler {
	userRepo := repository.NewUserRepository(db)

	return &AuthHandler{
		authService:    services.NewAuthService(userRepo, jwtKey, tokenTTL),
		profileService: services.NewProfileService(userRepo, rdb),
	}
}

// Register godoc
// @Summary Register
// @Description Create an account and return a token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Account"
// @Success 201 {object} dto.AuthResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return ErrBadRequest(c, "invalid request")
	}

	if err := c.Validate(&req); err != nil {
		return ErrBadRequest(c, err.Error())
	}

	user, token, err := h.authService.Register(c.Request().Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserExists):
			return ErrConflict(c, "email already registered")
		case errors.Is(err, services.ErrInvalidInput):
			return ErrBadRequest(c, "invalid input")
		default:
			return ErrFromService(c, err)
		}
	}

	return c.JSON(http.StatusCreated, dto.AuthResponse{
		Token: token,
		User:  dto.UserFromDomain(user),
	})
}

// Login godoc
// @Summary Login
// @Description Exchange email and password for a token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return ErrBadRequest(c, "invalid request")
	}

	if err := c.Validate(&req); err != nil {
		return ErrBadRequest(c, err.Error())
	}

	user, token, err := h.authService.Login(c.Request().Context(), services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return ErrUnauthorizedWithMessage(c, "invalid credentials")
		case errors.Is(err, services.ErrInvalidInput):
			return ErrBadRequest(c, "invalid input")
		default:
			return ErrFromService(c, err)
		}
	}

	return c.JSON(http.StatusOK, dto.AuthResponse{
		Token: token,
		User:  dto.UserFromDomain(user),
	})
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.User
// @Failure 401 {object} map[string]string
// @Router /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrUnauthorized(c)
	}

	user, err := h.profileService.Get(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUnauthorized(c)
		}
		return ErrFromService(c, err)
	}

	return c.JSON(http.StatusOK, dto.UserFromDomain(user))
}
