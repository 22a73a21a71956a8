package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
)

type SkillRepository struct {
	db *gorm.DB
}

func NewSkillRepository(db *gorm.DB) *SkillRepository {
	return &SkillRepository{db: db}
}

type SkillQuery struct {
	Search   string // case-insensitive match on title
	Category string
	Limit    int
	Offset   int
}

func (r *SkillRepository) Create(ctx context.Context, s *models.Skill) error {
	return translate(r.db.WithContext(ctx).Create(s).Error)
}

func (r *SkillRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Skill, error) {
	var s models.Skill
	err := r.db.WithContext(ctx).
		Preload("Provider").
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *SkillRepository) List(ctx context.Context, q SkillQuery) ([]models.Skill, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Skill{}).
		Preload("Provider", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "avatar_url", "role")
		})

	if s := strings.TrimSpace(q.Search); s != "" {
		tx = tx.Where(`LOWER(title) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(s))+"%")
	}
	if c := strings.TrimSpace(q.Category); c != "" {
		tx = tx.Where("category = ?", c)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}

	var out []models.Skill
	err := tx.Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *SkillRepository) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Skill, error) {
	var out []models.Skill
	err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *SkillRepository) CountByProvider(ctx context.Context, providerID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Skill{}).Where("provider_id = ?", providerID).Count(&n).Error
	return n, err
}

func (r *SkillRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&models.Skill{}).
		Where("category <> ''").
		Distinct("category").
		Order("category").
		Pluck("category", &categories).
		Error
	return categories, err
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
