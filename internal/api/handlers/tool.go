package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"toolrental/internal/api/dto"
	"toolrental/internal/api/services"
	"toolrental/internal/domain"
)

type ToolHandler struct {
	toolService *services.ToolService
}

func NewToolHandler(db *sqlx.DB, rdb *redis.Client) *ToolHandler {
	return &ToolHandler{
		toolService: services.NewToolService(db, rdb),
	}
}

// ListTools godoc
// @Summary Browse tools
// @Tags tools
// @Produce json
// @Param q query string false "Search text"
// @Param category query string false "Category"
// @Param available query bool false "Only available tools"
// @Param sort query string false "newest, price_asc, price_desc or name_asc"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} dto.Tool
// @Failure 400 {object} map[string]string
// @Router /api/tools [get]
func (h *ToolHandler) ListTools(c echo.Context) error {
	filter, err := toolFilterFromQuery(c)
	if err != nil {
		return ErrBadRequest(c, err.Error())
	}

	tools, err := h.toolService.List(c.Request().Context(), filter)
	if err != nil {
		return ErrFromService(c, err)
	}

	return c.JSON(http.StatusOK, dto.ToolsFromDomain(tools))
}

func toolFilterFromQuery(c echo.Context) (domain.ToolFilter, error) {
	filter := domain.ToolFilter{
		Query:    c.QueryParam("q"),
		Category: c.QueryParam("category"),
		Sort:     domain.ParseToolSort(c.QueryParam("sort")),
	}

	if v := c.QueryParam("available"); v != "" {
		available, err := strconv.ParseBool(v)
		if err != nil {
			return filter, errors.New("available must be true or false")
		}
		filter.Available = &available
	}
	if v := c.QueryParam("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return filter, errors.New("limit must be a number")
		}
		filter.Limit = limit
	}
	if v := c.QueryParam("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			return filter, errors.New("offset must be a number")
		}
		filter.Offset = offset
	}

	filter.Normalize()
	return filter, nil
}

// GetTool godoc
// @Summary Tool detail
// @Tags tools
// @Produce json
// @Param id path string true "Tool ID"
// @Success 200 {object} dto.Tool
// @Failure 404 {object} map[string]string
// @Router /api/tools/{id} [get]
func (h *ToolHandler) GetTool(c echo.Context) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return ErrBadRequest(c, "invalid tool id")
	}

	tool, err := h.toolService.Get(c.Request().Context(), id)
	if err != nil {
		return ErrFromService(c, err)
	}

	return c.JSON(http.StatusOK, dto.ToolFromDomain(tool))
}

// MyTools godoc
// @Summary Caller's tools
// @Tags tools
// @Produce json
// @Security Bearer
// @Success 200 {array} dto.Tool
// @Failure 401 {object} map[string]string
// @Router /api/tools/my [get]
func (h *ToolHandler) MyTools(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrUnauthorized(c)
	}

	tools, err := h.toolService.ListByOwner(c.Request().Context(), userID)
	if err != nil {
		return ErrFromService(c, err)
	}

	return c.JSON(http.StatusOK, dto.ToolsFromDomain(tools))
}

// CreateTool godoc
// @Summary List a tool for rent
// @Tags tools
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body dto.ToolRequest true "Tool"
// @Success 201 {object} dto.Tool
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/tools [post]
func (h *ToolHandler) CreateTool(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrUnauthorized(c)
	}

	input, err := bindToolRequest(c)
	if err != nil {
		return ErrBadRequest(c, err.Error())
	}

	tool, err := h.toolService.Create(c.Request().Context(), userID, input)
	if err != nil {
		return ErrFromService(c, err)
	}

	return c.JSON(http.StatusCreated, dto.ToolFromDomain(tool))
}

// UpdateTool godoc
// @Summary Edit a tool
// @Description Availability is not editable; it follows the rental lifecycle
// @Tags tools
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Tool ID"
// @Param request body dto.ToolRequest true "Tool"
// @Success 200 {object} dto.Tool
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/tools/{id} [put]
func (h *ToolHandler) UpdateTool(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrUnauthorized(c)
	}

	id, ok := uuidParam(c, "id")
	if !ok {
		return ErrBadRequest(c, "invalid tool id")
	}

	input, err := bindToolRequest(c)
	if err != nil {
		return ErrBadRequest(c, err.Error())
	}

	tool, err := h.toolService.Update(c.Request().Context(), id, userID, input)
	if err != nil {
		return ErrFromService(c, err)
	}

	return c.JSON(http.StatusOK, dto.ToolFromDomain(tool))
}

// DeleteTool godoc
// @Summary Remove a tool
// @Tags tools
// @Produce json
// @Security Bearer
// @Param id path string true "Tool ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/tools/{id} [delete]
func (h *ToolHandler) DeleteTool(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrUnauthorized(c)
	}

	id, ok := uuidParam(c, "id")
	if !ok {
		return ErrBadRequest(c, "invalid tool id")
	}

	if err := h.toolService.Delete(c.Request().Context(), id, userID); err != nil {
		return ErrFromService(c, err)
	}

	return SuccessResponse(c, "tool deleted")
}

func bindToolRequest(c echo.Context) (services.ToolInput, error) {
	var req dto.ToolRequest
	if err := c.Bind(&req); err != nil {
		return services.ToolInput{}, errors.New("invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return services.ToolInput{}, err
	}

	return services.ToolInput{
		Name:             req.Name,
		Description:      req.Description,
		Category:         req.Category,
		Condition:        req.Condition,
		ImageURL:         req.ImageURL,
		PricePerDayCents: req.PricePerDayCents,
	}, nil
}
