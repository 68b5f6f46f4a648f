package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"toolrental/internal/domain"
)

const conversationColumns = `conversations.id, conversations.created_at, conversations.rental_id,
	conversations.owner_id, conversations.renter_id`

type ConversationRepository struct {
	db ExtHandle
}

func NewConversationRepository(db ExtHandle) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// GetOrCreate returns the rental's conversation, creating it on first use.
// Concurrent callers for the same rental receive the same row.
func (r *ConversationRepository) GetOrCreate(ctx context.Context, rental *domain.Rental) (*domain.Conversation, error) {
	query := `
		INSERT INTO conversations (rental_id, owner_id, renter_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (rental_id) DO UPDATE SET rental_id = EXCLUDED.rental_id
		RETURNING id, created_at, rental_id, owner_id, renter_id
	`

	conv := &domain.Conversation{}
	if err := r.db.GetContext(ctx, conv, query, rental.ID, rental.OwnerID, rental.RenterID); err != nil {
		if isForeignKeyError(err) {
			return nil, ErrRentalNotFound
		}
		return nil, err
	}
	return conv, nil
}

func (r *ConversationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE conversations.id = $1`

	conv := &domain.Conversation{}
	if err := r.db.GetContext(ctx, conv, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return conv, nil
}

type MessageRepository struct {
	db ExtHandle
}

func NewMessageRepository(db ExtHandle) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (conversation_id, sender_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	return r.db.QueryRowxContext(ctx, query, msg.ConversationID, msg.SenderID, msg.Body).
		Scan(&msg.ID, &msg.CreatedAt)
}

// ListByConversation returns the newest limit messages in chronological order.
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit int) ([]domain.Message, error) {
	query := `
		SELECT * FROM (
			SELECT messages.id, messages.created_at, messages.conversation_id, messages.sender_id,
				messages.body, users.name AS sender_name
			FROM messages
			JOIN users ON users.id = messages.sender_id
			WHERE messages.conversation_id = $1
			ORDER BY messages.created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC
	`

	messages := []domain.Message{}
	if err := r.db.SelectContext(ctx, &messages, query, conversationID, limit); err != nil {
		return nil, err
	}
	return messages, nil
}
