package handlers

import (
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"

	"toolrental/internal/api/dto"
	"toolrental/internal/api/services"
)

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(db *sqlx.DB, broadcaster services.MessageBroadcaster) *ChatHandler {
	return &ChatHandler{
		chatService: services.NewChatService(db, broadcaster),
	}
}

// GetConversation godoc
// @Summary Conversation of a rental
// @Description Created on first access. Only the owner and the renter may open it.
// @Tags chat
// @Produce json
// @Security Bearer
// @Param rentalId path string true "Rental ID"
// @Success 200 {object} dto.Conversation
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/chat/conversation/{rentalId} [get]
func (h *ChatHandler) GetConversation(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrUnauthorized(c)
	}

	rentalID, ok := uuidParam(c, "rentalId")
	if !ok {
		return ErrBadRequest(c, "invalid rental id")
	}

	conv, err := h.chatService.ConversationForRental(c.Request().Context(), rentalID, userID)
	if err != nil {
		return ErrFromService(c, err)
	}

	return c.JSON(http.StatusOK, dto.ConversationFromDomain(conv))
}

// ListMessages godoc
// @Summary Messages of a conversation
// @Tags chat
// @Produce json
// @Security Bearer
// @Param conversationId path string true "Conversation ID"
// @Success 200 {array} dto.Message
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/chat/messages/{conversationId} [get]
func (h *ChatHandler) ListMessages(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrUnauthorized(c)
	}

	convID, ok := uuidParam(c, "conversationId")
	if !ok {
		return ErrBadRequest(c, "invalid conversation id")
	}

	messages, err := h.chatService.ListMessages(c.Request().Context(), convID, userID)
	if err != nil {
		return ErrFromService(c, err)
	}

	return c.JSON(http.StatusOK, dto.MessagesFromDomain(messages))
}

// SendMessage godoc
// @Summary Send a message
// @Description Stored, then pushed to websocket clients in the conversation room.
// @Tags chat
// @Accept json
// @Produce json
// @Security Bearer
// @Param conversationId path string true "Conversation ID"
// @Param request body dto.SendMessageRequest true "Message"
// @Success 201 {object} dto.Message
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/chat/messages/{conversationId} [post]
func (h *ChatHandler) SendMessage(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrUnauthorized(c)
	}

	convID, ok := uuidParam(c, "conversationId")
	if !ok {
		return ErrBadRequest(c, "invalid conversation id")
	}

	var req dto.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return ErrBadRequest(c, "invalid request")
	}

	if err := c.Validate(&req); err != nil {
		return ErrBadRequest(c, "message body is required")
	}

	msg, err := h.chatService.SendMessage(c.Request().Context(), convID, userID, req.Body)
	if err != nil {
		return ErrFromService(c, err)
	}

	return c.JSON(http.StatusCreated, dto.MessageFromDomain(msg))
}
