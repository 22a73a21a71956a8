package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser     Role = "user"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleProvider, RoleAdmin:
		return true
	}
	return false
}

// SignupRole reports whether r may be chosen at signup. Admins are seeded out of band.
func (r Role) SignupRole() bool {
	return r == RoleUser || r == RoleProvider
}

const (
	AuthProviderPassword = "password"
	AuthProviderGoogle   = "google"
)

// Account is the authentication subject. Its ID is shared with the Profile.
type Account struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Provider     string    `gorm:"type:varchar(20);not null;default:password" json:"provider"`

	// Metadata keeps what the caller supplied at signup (name, phone, role).
	Metadata datatypes.JSON `json:"metadata"`

	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (a *Account) Confirmed() bool {
	return a.EmailConfirmedAt != nil
}

type SignupMetadata struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Role  Role   `json:"role"`
}

func (m SignupMetadata) JSON() datatypes.JSON {
	b, _ := json.Marshal(m)
	return datatypes.JSON(b)
}

// Profile is the application-level record for a user, provider or admin.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"index" json:"email"`
	Phone     string    `gorm:"type:varchar(30)" json:"phone"`
	Role      Role      `gorm:"type:varchar(20);not null;index" json:"role"`
	Bio       string    `json:"bio"`
	Address   string    `json:"address"`
	AvatarURL string    `json:"avatar_url"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Profile) IsProvider() bool { return p.Role == RoleProvider }
func (p *Profile) IsAdmin() bool    { return p.Role == RoleAdmin }

type TokenPurpose string

const (
	TokenVerifyEmail   TokenPurpose = "verify_email"
	TokenResetPassword TokenPurpose = "reset_password"
)

// AuthToken is a single-use emailed token. Only the sha256 of the token is stored.
type AuthToken struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID uuid.UUID    `gorm:"type:uuid;not null;index" json:"account_id"`
	Purpose   TokenPurpose `gorm:"type:varchar(30);not null;index" json:"purpose"`
	TokenHash string       `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time    `json:"expires_at"`
	UsedAt    *time.Time   `json:"used_at"`
	CreatedAt time.Time    `json:"created_at"`
}

func (t *AuthToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
