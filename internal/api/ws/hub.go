package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"toolrental/internal/api/dto"
	"toolrental/internal/domain"
	"toolrental/internal/logger"
)

const writeWait = 10 * time.Second

const (
	TypeJoin       = "join"
	TypeLeave      = "leave"
	TypeJoined     = "joined"
	TypeLeft       = "left"
	TypeNewMessage = "new_message"
	TypeError      = "error"
)

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Inbound is a client command. ConversationID is set for join and leave.
type Inbound struct {
	Type           string    `json:"type"`
	ConversationID uuid.UUID `json:"conversation_id"`
}

type RoomData struct {
	ConversationID uuid.UUID `json:"conversation_id"`
}

type ErrorData struct {
	Error string `json:"error"`
}

// Client is one websocket connection. A user may hold several.
type Client struct {
	UserID uuid.UUID
	conn   *websocket.Conn
	// gorilla allows one concurrent writer per connection.
	writeMu sync.Mutex
	rooms   map[uuid.UUID]struct{}
}

func (c *Client) Send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) Ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Hub tracks connections and the conversation rooms they joined.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[uuid.UUID]map[*Client]struct{}
}

var globalHub *Hub
var once sync.Once

func GetHub() *Hub {
	once.Do(func() {
		globalHub = NewHub()
	})
	return globalHub
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		rooms:   make(map[uuid.UUID]map[*Client]struct{}),
	}
}

func (h *Hub) Register(userID uuid.UUID, conn *websocket.Conn) *Client {
	client := &Client{
		UserID: userID,
		conn:   conn,
		rooms:  make(map[uuid.UUID]struct{}),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	logger.WithComponent("hub").Info("client connected", "user_id", userID, "connections", total)
	return client
}

// Unregister removes the client from every room and closes its connection.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	for convID := range client.rooms {
		h.removeFromRoom(convID, client)
	}
	delete(h.clients, client)
	total := len(h.clients)
	h.mu.Unlock()

	client.conn.Close()
	logger.WithComponent("hub").Info("client disconnected", "user_id", client.UserID, "connections", total)
}

// Join adds the client to the conversation room. Membership must be checked by the caller.
func (h *Hub) Join(client *Client, conversationID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[conversationID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[conversationID] = room
	}
	room[client] = struct{}{}
	client.rooms[conversationID] = struct{}{}
}

func (h *Hub) Leave(client *Client, conversationID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoom(conversationID, client)
}

// removeFromRoom requires h.mu held for writing.
func (h *Hub) removeFromRoom(conversationID uuid.UUID, client *Client) {
	delete(client.rooms, conversationID)
	room, ok := h.rooms[conversationID]
	if !ok {
		return
	}
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, conversationID)
	}
}

// BroadcastMessage sends a stored chat message to everyone in the conversation room.
// Failed writes are logged; the reader loop of that client cleans it up.
func (h *Hub) BroadcastMessage(conversationID uuid.UUID, msg *domain.Message) error {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[conversationID]))
	for client := range h.rooms[conversationID] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	out := Message{Type: TypeNewMessage, Data: dto.MessageFromDomain(msg)}
	for _, client := range targets {
		if err := client.Send(out); err != nil {
			logger.WithComponent("hub").Warn("broadcast write failed",
				"conversation_id", conversationID, "user_id", client.UserID, "error", err)
		}
	}
	return nil
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) RoomSize(conversationID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[conversationID])
}
