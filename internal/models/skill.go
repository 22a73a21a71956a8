package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Skill struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProviderID  uuid.UUID `gorm:"type:uuid;not null;index" json:"provider_id"`
	Title       string    `gorm:"not null" json:"title"`
	Category    string    `gorm:"type:varchar(60);index" json:"category"`
	Description string    `json:"description"`
	Price       float64   `gorm:"type:numeric(12,2);not null;default:0" json:"price"` // per hour
	Experience  string    `json:"experience"`
	Address     string    `json:"address"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Provider *Profile `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
}

func (s *Skill) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
