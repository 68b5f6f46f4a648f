package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolrental/internal/api/dto"
	"toolrental/internal/api/ws"
	"toolrental/internal/config"
	"toolrental/internal/events"
	"toolrental/internal/testutil"
)

var testDB *sqlx.DB

func TestMain(m *testing.M) {
	db, err := testutil.SetupTestDB("../../.env.test", "../../migrations")
	if err != nil {
		log.Printf("[TestMain api] Database tests will be skipped: %v", err)
	} else {
		testDB = db
	}

	code := m.Run()

	if testDB != nil {
		testDB.Close()
	}
	os.Exit(code)
}

func newTestServer(t *testing.T, db *sqlx.DB) *echo.Echo {
	t.Helper()
	cfg := &config.Config{JWTKey: "routes-secret", JWTTTL: time.Hour}
	e := echo.New()
	SetupRoutes(e, db, nil, cfg, events.NopPublisher{}, ws.NewHub())
	return e
}

type apiClient struct {
	t     *testing.T
	e     *echo.Echo
	token string
}

func (c *apiClient) do(method, path string, body interface{}, out interface{}) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if c.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func register(t *testing.T, e *echo.Echo, name string) (*apiClient, *dto.User) {
	t.Helper()
	client := &apiClient{t: t, e: e}
	var resp dto.AuthResponse
	code := client.do(http.MethodPost, "/api/auth/register", dto.RegisterRequest{
		Name:     name,
		Email:    fmt.Sprintf("%s%d@test.com", name, time.Now().UnixNano()),
		Password: "password123",
	}, &resp)
	require.Equal(t, http.StatusCreated, code)
	client.token = resp.Token
	return client, resp.User
}

func TestRoutes_Public(t *testing.T) {
	e := newTestServer(t, testDB)
	anon := &apiClient{t: t, e: e}

	assert.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/health", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodGet, "/api/auth/me", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodPost, "/api/tools", dto.ToolRequest{Name: "x"}, nil))
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodPatch, "/api/rentals/00000000-0000-0000-0000-000000000001/approve", nil, nil))

	bad := &apiClient{t: t, e: e, token: "not-a-jwt"}
	assert.Equal(t, http.StatusUnauthorized, bad.do(http.MethodGet, "/api/profile", nil, nil))
}

// TestRoutes_RentalFlow walks one tool through request, approval, return and review.
func TestRoutes_RentalFlow(t *testing.T) {
	testutil.RequireDB(t, testDB)
	e := newTestServer(t, testDB)

	owner, _ := register(t, e, "owner")
	renter, _ := register(t, e, "renter")
	other, _ := register(t, e, "other")
	anon := &apiClient{t: t, e: e}

	var tool dto.Tool
	require.Equal(t, http.StatusCreated, owner.do(http.MethodPost, "/api/tools",
		dto.ToolRequest{Name: "Table Saw", Category: "Power Tools", PricePerDayCents: 2500}, &tool))

	var browsed dto.Tool
	assert.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/api/tools/"+tool.ID, nil, &browsed))
	assert.Equal(t, "Table Saw", browsed.Name)

	var r1, r2 dto.Rental
	require.Equal(t, http.StatusCreated, renter.do(http.MethodPost, "/api/rentals/request",
		dto.RentalRequest{ToolID: tool.ID, StartDate: "2025-06-01", EndDate: "2025-06-05"}, &r1))
	require.Equal(t, http.StatusCreated, other.do(http.MethodPost, "/api/rentals/request",
		dto.RentalRequest{ToolID: tool.ID, StartDate: "2025-06-03", EndDate: "2025-06-07"}, &r2))
	assert.Equal(t, 5, r1.Days)

	var inbox []dto.RentalListItem
	require.Equal(t, http.StatusOK, owner.do(http.MethodGet, "/api/rentals/requests", nil, &inbox))
	assert.Len(t, inbox, 2)

	assert.Equal(t, http.StatusOK, owner.do(http.MethodPatch, "/api/rentals/"+r1.ID+"/approve", nil, nil))
	assert.Equal(t, http.StatusConflict, owner.do(http.MethodPatch, "/api/rentals/"+r2.ID+"/approve", nil, nil))
	assert.Equal(t, http.StatusOK, owner.do(http.MethodPatch, "/api/rentals/"+r2.ID+"/reject", nil, nil))
	assert.Equal(t, http.StatusForbidden, other.do(http.MethodGet, "/api/rentals/"+r1.ID, nil, nil))

	var reviewGate dto.ReviewEligibility
	require.Equal(t, http.StatusOK, renter.do(http.MethodGet, "/api/reviews/tool/"+tool.ID+"/eligibility", nil, &reviewGate))
	assert.False(t, reviewGate.CanReview)
	assert.Equal(t, http.StatusForbidden, renter.do(http.MethodPost, "/api/reviews/tool/"+tool.ID, dto.ReviewRequest{Rating: 5}, nil))

	assert.Equal(t, http.StatusOK, renter.do(http.MethodPatch, "/api/rentals/"+r1.ID+"/return", nil, nil))
	var completed dto.Rental
	require.Equal(t, http.StatusOK, owner.do(http.MethodPatch, "/api/rentals/"+r1.ID+"/confirm-return", nil, &completed))
	assert.Equal(t, "completed", completed.Status)
	assert.NotNil(t, completed.CompletedAt)

	assert.Equal(t, http.StatusOK, renter.do(http.MethodPost, "/api/reviews/tool/"+tool.ID, dto.ReviewRequest{Rating: 4}, nil))

	var summary dto.ReviewSummary
	require.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/api/reviews/tool/"+tool.ID+"/summary", nil, &summary))
	assert.Equal(t, 1, summary.ReviewCount)
	assert.InDelta(t, 4.0, summary.AvgRating, 0.001)

	var conv dto.Conversation
	require.Equal(t, http.StatusOK, renter.do(http.MethodGet, "/api/chat/conversation/"+r1.ID, nil, &conv))
	assert.Equal(t, http.StatusCreated, owner.do(http.MethodPost, "/api/chat/messages/"+conv.ID,
		dto.SendMessageRequest{Body: "thanks!"}, nil))
	assert.Equal(t, http.StatusForbidden, other.do(http.MethodGet, "/api/chat/messages/"+conv.ID, nil, nil))

	var messages []dto.Message
	require.Equal(t, http.StatusOK, renter.do(http.MethodGet, "/api/chat/messages/"+conv.ID, nil, &messages))
	require.Len(t, messages, 1)
	assert.Equal(t, "thanks!", messages[0].Body)
}
