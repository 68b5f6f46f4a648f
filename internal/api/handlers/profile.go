package handlers

import (
	"errors"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"toolrental/internal/api/dto"
	"toolrental/internal/api/services"
	"toolrental/internal/repository"
)

type ProfileHandler struct {
	profileService *services.ProfileService
}

func NewProfileHandler(db *sqlx.DB, rdb *redis.Client) *ProfileHandler {
	return &ProfileHandler{
		profileService: services.NewProfileService(repository.NewUserRepository(db), rdb),
	}
}

// GetProfile godoc
// @Summary Get profile
// @Tags profile
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.User
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/profile [get]
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrUnauthorized(c)
	}

	user, err := h.profileService.Get(c.Request().Context(), userID)
	if err != nil {
		return ErrFromService(c, err)
	}

	return c.JSON(http.StatusOK, dto.UserFromDomain(user))
}

// UpdateProfile godoc
// @Summary Update profile
// @Description Changing the password requires currentPassword
// @Tags profile
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body dto.UpdateProfileRequest true "Profile"
// @Success 200 {object} dto.User
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/profile [put]
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrUnauthorized(c)
	}

	var req dto.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return ErrBadRequest(c, "invalid request")
	}

	if err := c.Validate(&req); err != nil {
		return ErrBadRequest(c, err.Error())
	}

	user, err := h.profileService.Update(c.Request().Context(), userID, services.UpdateProfileInput{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Address:         req.Address,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return ErrUnauthorizedWithMessage(c, "current password is incorrect")
		case errors.Is(err, repository.ErrUserExists):
			return ErrConflict(c, "email already registered")
		default:
			return ErrFromService(c, err)
		}
	}

	return c.JSON(http.StatusOK, dto.UserFromDomain(user))
}

// DeleteProfile godoc
// @Summary Delete account
// @Tags profile
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body dto.DeleteProfileRequest true "Password confirmation"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/profile [delete]
func (h *ProfileHandler) DeleteProfile(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrUnauthorized(c)
	}

	var req dto.DeleteProfileRequest
	if err := c.Bind(&req); err != nil {
		return ErrBadRequest(c, "invalid request")
	}

	if err := c.Validate(&req); err != nil {
		return ErrBadRequest(c, "password is required")
	}

	if err := h.profileService.Delete(c.Request().Context(), userID, req.Password); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return ErrUnauthorizedWithMessage(c, "password is incorrect")
		}
		return ErrFromService(c, err)
	}

	return SuccessResponse(c, "account deleted")
}
