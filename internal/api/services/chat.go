package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"toolrental/internal/domain"
	"toolrental/internal/logger"
	"toolrental/internal/repository"
)

const (
	maxMessageLength = 4000
	messageHistory   = 200
)

// MessageBroadcaster pushes a stored message to the clients watching its conversation.
type MessageBroadcaster interface {
	BroadcastMessage(conversationID uuid.UUID, msg *domain.Message) error
}

type ChatService struct {
	rentalRepo       *repository.RentalRepository
	conversationRepo *repository.ConversationRepository
	messageRepo      *repository.MessageRepository
	userRepo         *repository.UserRepository
	broadcaster      MessageBroadcaster
}

func NewChatService(db *sqlx.DB, broadcaster MessageBroadcaster) *ChatService {
	return &ChatService{
		rentalRepo:       repository.NewRentalRepository(db),
		conversationRepo: repository.NewConversationRepository(db),
		messageRepo:      repository.NewMessageRepository(db),
		userRepo:         repository.NewUserRepository(db),
		broadcaster:      broadcaster,
	}
}

func (s *ChatService) ConversationForRental(ctx context.Context, rentalID, userID uuid.UUID) (*domain.Conversation, error) {
	rental, err := s.rentalRepo.FindByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if !rental.IsParticipant(userID) {
		return nil, fmt.Errorf("%w: not a participant of this rental", domain.ErrForbidden)
	}
	return s.conversationRepo.GetOrCreate(ctx, rental)
}

// Membership loads the conversation and checks that userID belongs to it.
func (s *ChatService) Membership(ctx context.Context, conversationID, userID uuid.UUID) (*domain.Conversation, error) {
	conv, err := s.conversationRepo.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasMember(userID) {
		return nil, fmt.Errorf("%w: not a member of this conversation", domain.ErrForbidden)
	}
	return conv, nil
}

func (s *ChatService) ListMessages(ctx context.Context, conversationID, userID uuid.UUID) ([]domain.Message, error) {
	if _, err := s.Membership(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	return s.messageRepo.ListByConversation(ctx, conversationID, messageHistory)
}

func (s *ChatService) SendMessage(ctx context.Context, conversationID, senderID uuid.UUID, body string) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: message body is empty", domain.ErrValidation)
	}
	if len(body) > maxMessageLength {
		return nil, fmt.Errorf("%w: message is too long", domain.ErrValidation)
	}

	if _, err := s.Membership(ctx, conversationID, senderID); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	if sender, err := s.userRepo.FindByID(ctx, senderID); err == nil {
		msg.SenderName = sender.Name
	}

	if s.broadcaster != nil {
		if err := s.broadcaster.BroadcastMessage(conversationID, msg); err != nil {
			logger.Warn("message broadcast failed", "conversation_id", conversationID, "error", err)
		}
	}

	return msg, nil
}
