package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Windi-Fikriyansyah/skilllink/internal/metrics"
	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
	"github.com/Windi-Fikriyansyah/skilllink/internal/realtime"
	"github.com/Windi-Fikriyansyah/skilllink/internal/repository"
)

var (
	ErrChatNotFound    = errors.New("chat not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrSameParticipant = errors.New("cannot chat with yourself")
	ErrNotParticipant  = errors.New("access denied")
	ErrEmptyMessage    = errors.New("message is required")
)

type ChatStore interface {
	FindByPair(ctx context.Context, userID, providerID uuid.UUID) (*models.Chat, error)
	Create(ctx context.Context, c *models.Chat) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Chat, error)
	ListForParticipant(ctx context.Context, profileID uuid.UUID) ([]models.Chat, error)
	TouchLastMessage(ctx context.Context, id uuid.UUID, body string, at time.Time) error
}

type MessageStore interface {
	Create(ctx context.Context, m *models.Message) error
	ListByChat(ctx context.Context, chatID uuid.UUID) ([]models.Message, error)
	MarkRead(ctx context.Context, chatID, readerID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, chatID, readerID uuid.UUID) (int64, error)
	CountUnreadTotal(ctx context.Context, readerID uuid.UUID) (int64, error)
}

type ProfileLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

type Service struct {
	chats    ChatStore
	messages MessageStore
	profiles ProfileLookup
	broker   realtime.Broker
	logger   *zerolog.Logger
}

func NewService(chats ChatStore, messages MessageStore, profiles ProfileLookup, broker realtime.Broker, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{chats: chats, messages: messages, profiles: profiles, broker: broker, logger: logger}
}

// CreateOrGetChat returns the chat between caller and other, creating it if needed.
// A provider caller is the provider side of the pair; anyone else is the user side.
// Naming yourself as the other participant fails with ErrSameParticipant.
func (s *Service) CreateOrGetChat(ctx context.Context, callerID, otherID uuid.UUID) (*models.Chat, bool, error) {
	if callerID == otherID {
		return nil, false, ErrSameParticipant
	}

	caller, err := s.lookup(ctx, callerID)
	if err != nil {
		return nil, false, err
	}
	if _, err := s.lookup(ctx, otherID); err != nil {
		return nil, false, err
	}

	userID, providerID := callerID, otherID
	if caller.IsProvider() {
		userID, providerID = otherID, callerID
	}

	existing, err := s.chats.FindByPair(ctx, userID, providerID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, fmt.Errorf("find chat: %w", err)
	}

	c := &models.Chat{UserID: userID, ProviderID: providerID}
	if err := s.chats.Create(ctx, c); err != nil {
		return nil, false, fmt.Errorf("create chat: %w", err)
	}
	return c, true, nil
}

// SendMessage persists the message and announces it. Callers are expected to
// have checked that senderID belongs to the chat.
func (s *Service) SendMessage(ctx context.Context, chatID, senderID uuid.UUID, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}

	c, err := s.chats.GetByID(ctx, chatID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load chat: %w", err)
	}

	msg := &models.Message{ChatID: chatID, SenderID: senderID, Body: body}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	metrics.MessageSent()

	if err := s.chats.TouchLastMessage(ctx, chatID, body, msg.CreatedAt); err != nil {
		s.logger.Error().Err(err).Str("chat_id", chatID.String()).Msg("update last message")
	}

	s.announce(ctx, c, msg)
	return msg, nil
}

func (s *Service) announce(ctx context.Context, c *models.Chat, msg *models.Message) {
	if s.broker == nil {
		return
	}

	ev, err := realtime.NewEvent(realtime.EventInsert, "messages", msg)
	if err != nil {
		s.logger.Error().Err(err).Msg("encode message event")
		return
	}
	if err := s.broker.Publish(ctx, realtime.ChatTopic(c.ID), ev); err != nil {
		s.logger.Error().Err(err).Str("chat_id", c.ID.String()).Msg("failed to publish message")
	}

	recipient := c.Counterpart(msg.SenderID)
	if recipient == uuid.Nil {
		return
	}
	ev.Type = realtime.EventChatMessage
	if err := s.broker.Publish(ctx, realtime.UserTopic(recipient), ev); err != nil {
		s.logger.Error().Err(err).Str("user_id", recipient.String()).Msg("failed to notify recipient")
	}
}

func (s *Service) GetChat(ctx context.Context, viewerID, chatID uuid.UUID) (*models.Chat, error) {
	c, err := s.chats.GetByID(ctx, chatID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load chat: %w", err)
	}
	if !c.HasParticipant(viewerID) {
		return nil, ErrNotParticipant
	}
	return c, nil
}

type Summary struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	ProviderID    uuid.UUID       `json:"provider_id"`
	Counterpart   *models.Profile `json:"counterpart,omitempty"`
	LastMessage   string          `json:"last_message"`
	LastMessageAt *time.Time      `json:"last_message_at"`
	UnreadCount   int64           `json:"unread_count"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ListChats returns the viewer's chats, newest first.
func (s *Service) ListChats(ctx context.Context, viewerID uuid.UUID) ([]Summary, error) {
	chats, err := s.chats.ListForParticipant(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}

	out := make([]Summary, 0, len(chats))
	for _, c := range chats {
		sum := Summary{
			ID:            c.ID,
			UserID:        c.UserID,
			ProviderID:    c.ProviderID,
			LastMessage:   c.LastMessage,
			LastMessageAt: c.LastMessageAt,
			CreatedAt:     c.CreatedAt,
		}
		if c.UserID == viewerID {
			sum.Counterpart = c.Provider
		} else {
			sum.Counterpart = c.User
		}

		n, err := s.messages.CountUnread(ctx, c.ID, viewerID)
		if err != nil {
			s.logger.Warn().Err(err).Str("chat_id", c.ID.String()).Msg("count unread")
		}
		sum.UnreadCount = n
		out = append(out, sum)
	}
	return out, nil
}

// Messages returns the chat's messages oldest first.
func (s *Service) Messages(ctx context.Context, viewerID, chatID uuid.UUID) ([]models.Message, error) {
	if _, err := s.GetChat(ctx, viewerID, chatID); err != nil {
		return nil, err
	}
	return s.History(ctx, chatID)
}

// History loads a chat's messages without a participation check.
func (s *Service) History(ctx context.Context, chatID uuid.UUID) ([]models.Message, error) {
	msgs, err := s.messages.ListByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

func (s *Service) MarkRead(ctx context.Context, viewerID, chatID uuid.UUID) (int64, error) {
	if _, err := s.GetChat(ctx, viewerID, chatID); err != nil {
		return 0, err
	}
	n, err := s.messages.MarkRead(ctx, chatID, viewerID)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	return n, nil
}

func (s *Service) UnreadTotal(ctx context.Context, viewerID uuid.UUID) (int64, error) {
	n, err := s.messages.CountUnreadTotal(ctx, viewerID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

func (s *Service) lookup(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}
