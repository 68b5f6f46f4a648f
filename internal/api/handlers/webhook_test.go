package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookHandler_Stripe(t *testing.T) {
	e := newTestEcho()
	c, rec := newJSONContext(e, http.MethodPost, "/api/stripe/webhook", `{"type":"checkout.session.completed"}`, uuid.Nil)

	require.NoError(t, NewWebhookHandler().Stripe(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())
}
