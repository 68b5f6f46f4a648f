package handlers

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"toolrental/internal/logger"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct{}

func NewWebhookHandler() *WebhookHandler {
	return &WebhookHandler{}
}

// Stripe godoc
// @Summary Payment webhook
// @Description Acknowledges payment provider events. Payments are not processed yet.
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool
// @Router /api/stripe/webhook [post]
func (h *WebhookHandler) Stripe(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return ErrBadRequest(c, "unreadable body")
	}

	logger.WithComponent("webhook").Info("stripe webhook received",
		"bytes", len(body),
		"signature", c.Request().Header.Get("Stripe-Signature") != "")

	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}
