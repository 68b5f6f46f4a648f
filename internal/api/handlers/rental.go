package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"toolrental/internal/api/dto"
	"toolrental/internal/api/services"
	"toolrental/internal/domain"
	"toolrental/internal/events"
)

type RentalHandler struct {
	rentalService *services.RentalService
}

func NewRentalHandler(db *sqlx.DB, rdb *redis.Client, publisher events.Publisher) *RentalHandler {
	return &RentalHandler{
		rentalService: services.NewRentalService(db, rdb, publisher),
	}
}

// RequestRental godoc
// @Summary Request a rental
// @Description Creates a pending rental. Overlap with other requests is resolved at approval.
// @Tags rentals
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body dto.RentalRequest true "Tool and inclusive date range"
// @Success 201 {object} dto.Rental
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/rentals/request [post]
func (h *RentalHandler) RequestRental(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrUnauthorized(c)
	}

	var req dto.RentalRequest
	if err := c.Bind(&req); err != nil {
		return ErrBadRequest(c, "invalid request")
	}

	if err := c.Validate(&req); err != nil {
		return ErrBadRequest(c, err.Error())
	}

	toolID, err := uuid.Parse(req.ToolID)
	if err != nil {
		return ErrBadRequest(c, "invalid tool id")
	}
	start, err := time.Parse(dto.DateLayout, req.StartDate)
	if err != nil {
		return ErrBadRequest(c, "startDate must be YYYY-MM-DD")
	}
	end, err := time.Parse(dto.DateLayout, req.EndDate)
	if err != nil {
		return ErrBadRequest(c, "endDate must be YYYY-MM-DD")
	}

	rental, err := h.rentalService.Request(c.Request().Context(), services.RequestRentalInput{
		ToolID:    toolID,
		RenterID:  userID,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return ErrFromService(c, err)
	}

	return c.JSON(http.StatusCreated, dto.RentalFromDomain(rental))
}

// MyRentals godoc
// @Summary Rentals the caller requested
// @Tags rentals
// @Produce json
// @Security Bearer
// @Success 200 {array} dto.RentalListItem
// @Router /api/rentals/my [get]
func (h *RentalHandler) MyRentals(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrUnauthorized(c)
	}

	items, err := h.rentalService.ListMine(c.Request().Context(), userID)
	if err != nil {
		return ErrFromService(c, err)
	}

	return c.JSON(http.StatusOK, dto.RentalListFromDomain(items))
}

// RentalRequests godoc
// @Summary Rentals of the caller's tools
// @Tags rentals
// @Produce json
// @Security Bearer
// @Success 200 {array} dto.RentalListItem
// @Router /api/rentals/requests [get]
func (h *RentalHandler) RentalRequests(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrUnauthorized(c)
	}

	items, err := h.rentalService.ListRequests(c.Request().Context(), userID)
	if err != nil {
		return ErrFromService(c, err)
	}

	return c.JSON(http.StatusOK, dto.RentalListFromDomain(items))
}

// GetRental godoc
// @Summary Rental detail
// @Tags rentals
// @Produce json
// @Security Bearer
// @Param id path string true "Rental ID"
// @Success 200 {object} dto.Rental
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/rentals/{id} [get]
func (h *RentalHandler) GetRental(c echo.Context) error {
	return h.withRental(c, h.rentalService.Get)
}

// Approve godoc
// @Summary Approve a pending rental
// @Tags rentals
// @Produce json
// @Security Bearer
// @Param id path string true "Rental ID"
// @Success 200 {object} dto.Rental
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Wrong state or dates overlap an approved rental"
// @Router /api/rentals/{id}/approve [patch]
func (h *RentalHandler) Approve(c echo.Context) error {
	return h.withRental(c, h.rentalService.Approve)
}

// Reject godoc
// @Summary Reject a pending rental
// @Tags rentals
// @Produce json
// @Security Bearer
// @Param id path string true "Rental ID"
// @Success 200 {object} dto.Rental
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/rentals/{id}/reject [patch]
func (h *RentalHandler) Reject(c echo.Context) error {
	return h.withRental(c, h.rentalService.Reject)
}

// MarkReturned godoc
// @Summary Renter marks the tool as returned
// @Tags rentals
// @Produce json
// @Security Bearer
// @Param id path string true "Rental ID"
// @Success 200 {object} dto.Rental
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/rentals/{id}/return [patch]
func (h *RentalHandler) MarkReturned(c echo.Context) error {
	return h.withRental(c, h.rentalService.MarkReturned)
}

// ConfirmReturn godoc
// @Summary Owner confirms the return
// @Tags rentals
// @Produce json
// @Security Bearer
// @Param id path string true "Rental ID"
// @Success 200 {object} dto.Rental
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/rentals/{id}/confirm-return [patch]
func (h *RentalHandler) ConfirmReturn(c echo.Context) error {
	return h.withRental(c, h.rentalService.ConfirmReturn)
}

type rentalAction func(ctx context.Context, rentalID, userID uuid.UUID) (*domain.Rental, error)

func (h *RentalHandler) withRental(c echo.Context, action rentalAction) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrUnauthorized(c)
	}

	rentalID, ok := uuidParam(c, "id")
	if !ok {
		return ErrBadRequest(c, "invalid rental id")
	}

	rental, err := action(c.Request().Context(), rentalID, userID)
	if err != nil {
		return ErrFromService(c, err)
	}

	return c.JSON(http.StatusOK, dto.RentalFromDomain(rental))
}
