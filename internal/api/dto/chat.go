package dto

import (
	"time"

	"toolrental/internal/domain"
)

type Conversation struct {
	ID        string    `json:"id"`
	RentalID  string    `json:"rentalId"`
	OwnerID   string    `json:"ownerId"`
	RenterID  string    `json:"renterId"`
	CreatedAt time.Time `json:"createdAt"`
}

func ConversationFromDomain(conv *domain.Conversation) *Conversation {
	if conv == nil {
		return nil
	}

	return &Conversation{
		ID:        conv.ID.String(),
		RentalID:  conv.RentalID.String(),
		OwnerID:   conv.OwnerID.String(),
		RenterID:  conv.RenterID.String(),
		CreatedAt: conv.CreatedAt,
	}
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	SenderName     string    `json:"senderName"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"createdAt"`
}

func MessageFromDomain(msg *domain.Message) *Message {
	if msg == nil {
		return nil
	}

	return &Message{
		ID:             msg.ID.String(),
		ConversationID: msg.ConversationID.String(),
		SenderID:       msg.SenderID.String(),
		SenderName:     msg.SenderName,
		Body:           msg.Body,
		CreatedAt:      msg.CreatedAt,
	}
}

func MessagesFromDomain(messages []domain.Message) []*Message {
	result := make([]*Message, len(messages))
	for i := range messages {
		result[i] = MessageFromDomain(&messages[i])
	}
	return result
}

type SendMessageRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}
