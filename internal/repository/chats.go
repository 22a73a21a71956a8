package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) FindByPair(ctx context.Context, userID, providerID uuid.UUID) (*models.Chat, error) {
	var c models.Chat
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND provider_id = ?", userID, providerID).
		Order("created_at ASC").
		First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *ChatRepository) Create(ctx context.Context, c *models.Chat) error {
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

func (r *ChatRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	var c models.Chat
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Provider").
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *ChatRepository) ListForParticipant(ctx context.Context, profileID uuid.UUID) ([]models.Chat, error) {
	var out []models.Chat
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Provider").
		Where("user_id = ? OR provider_id = ?", profileID, profileID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *ChatRepository) TouchLastMessage(ctx context.Context, id uuid.UUID, body string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Chat{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_message":    body,
			"last_message_at": at,
		}).Error
}

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, m *models.Message) error {
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

// ListByChat returns the thread oldest first.
func (r *MessageRepository) ListByChat(ctx context.Context, chatID uuid.UUID) ([]models.Message, error) {
	var out []models.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// MarkRead flags every message in the chat not sent by readerID.
func (r *MessageRepository) MarkRead(ctx context.Context, chatID, readerID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("chat_id = ? AND sender_id <> ? AND read = ?", chatID, readerID, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}

func (r *MessageRepository) CountUnread(ctx context.Context, chatID, readerID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("chat_id = ? AND sender_id <> ? AND read = ?", chatID, readerID, false).
		Count(&n).Error
	return n, err
}

// CountUnreadTotal counts unread messages addressed to readerID across all chats.
func (r *MessageRepository) CountUnreadTotal(ctx context.Context, readerID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Joins("JOIN chats ON messages.chat_id = chats.id").
		Where("(chats.user_id = ? OR chats.provider_id = ?) AND messages.sender_id <> ? AND messages.read = ?", readerID, readerID, readerID, false).
		Count(&n).Error
	return n, err
}
