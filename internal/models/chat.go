// internal/models/chat.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chat is a two-party thread. At most one per (user, provider) pair; the
// lookup-before-create in the chat service keeps it that way, the schema does not.
type Chat struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ProviderID uuid.UUID `gorm:"type:uuid;not null;index" json:"provider_id"`

	LastMessage   string     `json:"last_message"`
	LastMessageAt *time.Time `json:"last_message_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	User     *Profile `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Provider *Profile `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
}

func (c *Chat) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Chat) HasParticipant(id uuid.UUID) bool {
	return c.UserID == id || c.ProviderID == id
}

// Counterpart returns the other participant's id, or uuid.Nil if id is not a participant.
func (c *Chat) Counterpart(id uuid.UUID) uuid.UUID {
	switch id {
	case c.UserID:
		return c.ProviderID
	case c.ProviderID:
		return c.UserID
	}
	return uuid.Nil
}

type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ChatID    uuid.UUID `gorm:"type:uuid;not null;index" json:"chat_id"`
	SenderID  uuid.UUID `gorm:"type:uuid;not null;index" json:"sender_id"`
	Body      string    `gorm:"column:message;not null" json:"message"`
	Read      bool      `gorm:"default:false" json:"read"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// All lists every model for AutoMigrate, parents before children.
func All() []any {
	return []any{
		&Account{},
		&Profile{},
		&AuthToken{},
		&Skill{},
		&Booking{},
		&Chat{},
		&Message{},
	}
}
