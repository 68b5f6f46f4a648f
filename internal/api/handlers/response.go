package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"toolrental/internal/api/middleware"
	"toolrental/internal/domain"
	"toolrental/internal/logger"
)

func ErrUnauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
}

func ErrForbidden(c echo.Context, message string) error {
	if message == "" {
		message = "forbidden"
	}
	return c.JSON(http.StatusForbidden, map[string]string{"error": message})
}

func ErrNotFound(c echo.Context, message string) error {
	if message == "" {
		message = "not found"
	}
	return c.JSON(http.StatusNotFound, map[string]string{"error": message})
}

func ErrBadRequest(c echo.Context, message string) error {
	if message == "" {
		message = "invalid request"
	}
	return c.JSON(http.StatusBadRequest, map[string]string{"error": message})
}

func ErrInternalServerError(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func ErrConflict(c echo.Context, message string) error {
	if message == "" {
		message = "conflict"
	}
	return c.JSON(http.StatusConflict, map[string]string{"error": message})
}

func ErrUnauthorizedWithMessage(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": message})
}

func SuccessResponse(c echo.Context, message string) error {
	if message == "" {
		message = "ok"
	}
	return c.JSON(http.StatusOK, map[string]string{"message": message})
}

// ErrFromService maps domain sentinels to status codes. Unknown errors are logged and hidden.
func ErrFromService(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return ErrNotFound(c, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return ErrForbidden(c, err.Error())
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrConflict):
		return ErrConflict(c, err.Error())
	case errors.Is(err, domain.ErrValidation):
		return ErrBadRequest(c, err.Error())
	default:
		logger.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method, "path", c.Path(), "error", err)
		return ErrInternalServerError(c)
	}
}

func currentUserID(c echo.Context) (uuid.UUID, bool) {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	return userID, err == nil
}

func uuidParam(c echo.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	return id, err == nil
}
