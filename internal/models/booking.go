package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingApproved  BookingStatus = "approved"
	BookingRejected  BookingStatus = "rejected"
	BookingCompleted BookingStatus = "completed"
)

// legal transitions; everything else is rejected by the guarded path.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:  {BookingApproved, BookingRejected},
	BookingApproved: {BookingCompleted},
}

func ParseBookingStatus(s string) (BookingStatus, error) {
	st := BookingStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown booking status %q", s)
	}
	return st, nil
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingApproved, BookingRejected, BookingCompleted:
		return true
	}
	return false
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal is informational only; nothing stops a direct overwrite.
func (s BookingStatus) Terminal() bool {
	return len(bookingTransitions[s]) == 0
}

type Booking struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	ProviderID uuid.UUID     `gorm:"type:uuid;not null;index" json:"provider_id"`
	SkillID    uuid.UUID     `gorm:"type:uuid;not null;index" json:"skill_id"`
	Date       time.Time     `gorm:"not null;index" json:"date"`
	Status     BookingStatus `gorm:"type:varchar(20);not null;default:pending;index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Skill    *Skill   `gorm:"foreignKey:SkillID" json:"skill,omitempty"`
	Provider *Profile `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
	Customer *Profile `gorm:"foreignKey:UserID" json:"customer,omitempty"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = BookingPending
	}
	return nil
}

func (b *Booking) HasParticipant(id uuid.UUID) bool {
	return b.UserID == id || b.ProviderID == id
}
