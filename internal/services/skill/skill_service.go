package skill

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
	"github.com/Windi-Fikriyansyah/skilllink/internal/repository"
	"github.com/Windi-Fikriyansyah/skilllink/internal/utils"
)

var (
	ErrNotFound      = errors.New("skill not found")
	ErrTitleRequired = errors.New("title is required")
	ErrNegativePrice = errors.New("price must not be negative")
)

type Store interface {
	Create(ctx context.Context, s *models.Skill) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Skill, error)
	List(ctx context.Context, q repository.SkillQuery) ([]models.Skill, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Skill, error)
	CountByProvider(ctx context.Context, providerID uuid.UUID) (int64, error)
	Categories(ctx context.Context) ([]string, error)
}

type Input struct {
	Title       string
	Category    string
	Description string
	Price       float64
	Experience  string
	Address     string
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create lists a new skill for providerID. Role checks belong to the route.
func (s *Service) Create(ctx context.Context, providerID uuid.UUID, in Input) (*models.Skill, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if in.Price < 0 {
		return nil, ErrNegativePrice
	}

	sk := &models.Skill{
		ProviderID:  providerID,
		Title:       title,
		Category:    strings.TrimSpace(in.Category),
		Description: utils.PlainText(in.Description),
		Price:       in.Price,
		Experience:  strings.TrimSpace(in.Experience),
		Address:     strings.TrimSpace(in.Address),
	}
	if err := s.store.Create(ctx, sk); err != nil {
		return nil, fmt.Errorf("create skill: %w", err)
	}
	return sk, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Skill, error) {
	sk, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load skill: %w", err)
	}
	return sk, nil
}

func (s *Service) List(ctx context.Context, q repository.SkillQuery) ([]models.Skill, error) {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 50
	}
	out, err := s.store.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	return out, nil
}

func (s *Service) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Skill, error) {
	out, err := s.store.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("list provider skills: %w", err)
	}
	return out, nil
}

func (s *Service) CountByProvider(ctx context.Context, providerID uuid.UUID) (int64, error) {
	return s.store.CountByProvider(ctx, providerID)
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	out, err := s.store.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}
