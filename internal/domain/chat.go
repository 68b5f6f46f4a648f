package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is the single chat thread attached to a rental.
type Conversation struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	RentalID  uuid.UUID `json:"rental_id" db:"rental_id"`
	OwnerID   uuid.UUID `json:"owner_id" db:"owner_id"`
	RenterID  uuid.UUID `json:"renter_id" db:"renter_id"`
}

func (c *Conversation) HasMember(userID uuid.UUID) bool {
	return c.OwnerID == userID || c.RenterID == userID
}

type Message struct {
	ID             uuid.UUID `json:"id" db:"id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	ConversationID uuid.UUID `json:"conversation_id" db:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id" db:"sender_id"`
	Body           string    `json:"body" db:"body"`
	SenderName     string    `json:"sender_name" db:"sender_name"`
}
