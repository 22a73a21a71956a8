package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// ProfileUpdate carries the editable fields. A nil AvatarURL leaves the avatar untouched.
type ProfileUpdate struct {
	Name      string
	Phone     string
	Bio       string
	Address   string
	AvatarURL *string
}

func (r *ProfileRepository) Create(ctx context.Context, p *models.Profile) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *ProfileRepository) Update(ctx context.Context, id uuid.UUID, in ProfileUpdate) (*models.Profile, error) {
	// map so empty strings are written too
	fields := map[string]interface{}{
		"name":    in.Name,
		"phone":   in.Phone,
		"bio":     in.Bio,
		"address": in.Address,
	}
	if in.AvatarURL != nil {
		fields["avatar_url"] = *in.AvatarURL
	}

	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *ProfileRepository) List(ctx context.Context) ([]models.Profile, error) {
	var out []models.Profile
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error
	return out, err
}
