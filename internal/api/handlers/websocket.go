package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"

	"toolrental/internal/api/services"
	"toolrental/internal/api/ws"
	"toolrental/internal/logger"
)

const (
	wsPongWait     = 60 * time.Second
	wsPingPeriod   = 50 * time.Second
	wsMaxFrameSize = 8 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Clients authenticate with a token, not cookies.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WebSocketHandler struct {
	hub         *ws.Hub
	authService *services.AuthService
	chatService *services.ChatService
}

func NewWebSocketHandler(db *sqlx.DB, hub *ws.Hub, jwtKey string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		authService: services.NewAuthService(nil, jwtKey, 0),
		chatService: services.NewChatService(db, hub),
	}
}

// HandleConnection godoc
// @Summary Realtime chat
// @Description Upgrade to a websocket. Send {"type":"join","conversation_id":"..."} to receive new_message events.
// @Tags chat
// @Param token query string true "JWT"
// @Success 101
// @Failure 401 {object} map[string]string
// @Router /api/ws [get]
func (h *WebSocketHandler) HandleConnection(c echo.Context) error {
	userID, err := h.authService.ParseToken(wsToken(c))
	if err != nil {
		return ErrUnauthorized(c)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return nil
	}

	client := h.hub.Register(userID, conn)
	defer h.hub.Unregister(client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go keepAlive(ctx, client)

	conn.SetReadLimit(wsMaxFrameSize)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	log := logger.WithComponent("websocket")
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read failed", "user_id", userID, "error", err)
			}
			return nil
		}

		var in ws.Inbound
		if err := json.Unmarshal(data, &in); err != nil {
			sendWSError(client, "invalid message")
			continue
		}
		h.dispatch(ctx, client, in)
	}
}

func (h *WebSocketHandler) dispatch(ctx context.Context, client *ws.Client, in ws.Inbound) {
	switch in.Type {
	case ws.TypeJoin:
		if _, err := h.chatService.Membership(ctx, in.ConversationID, client.UserID); err != nil {
			sendWSError(client, err.Error())
			return
		}
		h.hub.Join(client, in.ConversationID)
		_ = client.Send(ws.Message{Type: ws.TypeJoined, Data: ws.RoomData{ConversationID: in.ConversationID}})
	case ws.TypeLeave:
		h.hub.Leave(client, in.ConversationID)
		_ = client.Send(ws.Message{Type: ws.TypeLeft, Data: ws.RoomData{ConversationID: in.ConversationID}})
	default:
		sendWSError(client, "unknown message type")
	}
}

func keepAlive(ctx context.Context, client *ws.Client) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(); err != nil {
				return
			}
		}
	}
}

func sendWSError(client *ws.Client, message string) {
	_ = client.Send(ws.Message{Type: ws.TypeError, Data: ws.ErrorData{Error: message}})
}

// wsToken reads the token from the query string, falling back to the Authorization header.
func wsToken(c echo.Context) string {
	if token := c.QueryParam("token"); token != "" {
		return token
	}
	return strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
}
