package handlers

import (
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"toolrental/internal/api/dto"
	"toolrental/internal/api/services"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
}

func NewReviewHandler(db *sqlx.DB, rdb *redis.Client) *ReviewHandler {
	return &ReviewHandler{
		reviewService: services.NewReviewService(db, rdb),
	}
}

// ListReviews godoc
// @Summary Reviews of a tool
// @Tags reviews
// @Produce json
// @Param toolId path string true "Tool ID"
// @Success 200 {array} dto.Review
// @Router /api/reviews/tool/{toolId} [get]
func (h *ReviewHandler) ListReviews(c echo.Context) error {
	toolID, ok := uuidParam(c, "toolId")
	if !ok {
		return ErrBadRequest(c, "invalid tool id")
	}

	reviews, err := h.reviewService.List(c.Request().Context(), toolID)
	if err != nil {
		return ErrFromService(c, err)
	}

	return c.JSON(http.StatusOK, dto.ReviewsFromDomain(reviews))
}

// Summary godoc
// @Summary Average rating of a tool
// @Tags reviews
// @Produce json
// @Param toolId path string true "Tool ID"
// @Success 200 {object} dto.ReviewSummary
// @Router /api/reviews/tool/{toolId}/summary [get]
func (h *ReviewHandler) Summary(c echo.Context) error {
	toolID, ok := uuidParam(c, "toolId")
	if !ok {
		return ErrBadRequest(c, "invalid tool id")
	}

	summary, err := h.reviewService.Summary(c.Request().Context(), toolID)
	if err != nil {
		return ErrFromService(c, err)
	}

	return c.JSON(http.StatusOK, dto.ReviewSummary{
		AvgRating:   summary.AvgRating,
		ReviewCount: summary.ReviewCount,
	})
}

// Eligibility godoc
// @Summary Whether the caller may review the tool
// @Tags reviews
// @Produce json
// @Security Bearer
// @Param toolId path string true "Tool ID"
// @Success 200 {object} dto.ReviewEligibility
// @Failure 404 {object} map[string]string
// @Router /api/reviews/tool/{toolId}/eligibility [get]
func (h *ReviewHandler) Eligibility(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrUnauthorized(c)
	}

	toolID, ok := uuidParam(c, "toolId")
	if !ok {
		return ErrBadRequest(c, "invalid tool id")
	}

	canReview, err := h.reviewService.CanReview(c.Request().Context(), toolID, userID)
	if err != nil {
		return ErrFromService(c, err)
	}

	return c.JSON(http.StatusOK, dto.ReviewEligibility{CanReview: canReview})
}

// SubmitReview godoc
// @Summary Review a rented tool
// @Description Requires a completed rental of the tool. A second submission replaces the first.
// @Tags reviews
// @Accept json
// @Produce json
// @Security Bearer
// @Param toolId path string true "Tool ID"
// @Param request body dto.ReviewRequest true "Review"
// @Success 200 {object} dto.Review
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/reviews/tool/{toolId} [post]
func (h *ReviewHandler) SubmitReview(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrUnauthorized(c)
	}

	toolID, ok := uuidParam(c, "toolId")
	if !ok {
		return ErrBadRequest(c, "invalid tool id")
	}

	var req dto.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return ErrBadRequest(c, "invalid request")
	}

	if err := c.Validate(&req); err != nil {
		return ErrBadRequest(c, "rating must be between 1 and 5")
	}

	review, err := h.reviewService.Submit(c.Request().Context(), services.SubmitReviewInput{
		ToolID:     toolID,
		ReviewerID: userID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		return ErrFromService(c, err)
	}

	return c.JSON(http.StatusOK, dto.ReviewFromDomain(review))
}
