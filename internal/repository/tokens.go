package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
)

type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Create(ctx context.Context, t *models.AuthToken) error {
	return translate(r.db.WithContext(ctx).Create(t).Error)
}

// Consume marks a live token as used and returns it. Expired, used or
// unknown tokens come back as ErrNotFound.
func (r *TokenRepository) Consume(ctx context.Context, hash string, purpose models.TokenPurpose, now time.Time) (*models.AuthToken, error) {
	var tok models.AuthToken
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("token_hash = ? AND purpose = ? AND used_at IS NULL AND expires_at > ?", hash, purpose, now).
			First(&tok).Error; err != nil {
			return translate(err)
		}

		res := tx.Model(&models.AuthToken{}).
			Where("id = ? AND used_at IS NULL", tok.ID).
			Update("used_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		tok.UsedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tok, nil
}
