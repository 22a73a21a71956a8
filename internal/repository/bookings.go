package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) withJoins(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Skill").
		Preload("Provider").
		Preload("Customer")
}

func (r *BookingRepository) Create(ctx context.Context, b *models.Booking) error {
	return translate(r.db.WithContext(ctx).Create(b).Error)
}

func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var b models.Booking
	if err := r.withJoins(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

// UpdateStatus overwrites the status whatever it was before. Last write wins.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.BookingStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CompareAndSetStatus only writes when the stored status still equals from.
func (r *BookingRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to models.BookingStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// ListForParticipant returns bookings where the profile is either side, soonest first.
func (r *BookingRepository) ListForParticipant(ctx context.Context, profileID uuid.UUID) ([]models.Booking, error) {
	var out []models.Booking
	err := r.withJoins(ctx).
		Where("user_id = ? OR provider_id = ?", profileID, profileID).
		Order("date ASC").
		Find(&out).Error
	return out, err
}
