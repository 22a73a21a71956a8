package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
	"github.com/Windi-Fikriyansyah/skilllink/internal/repository"
	"github.com/Windi-Fikriyansyah/skilllink/internal/storage"
	"github.com/Windi-Fikriyansyah/skilllink/internal/utils"
)

var ErrNotFound = errors.New("profile not found")

type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Update(ctx context.Context, id uuid.UUID, in repository.ProfileUpdate) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
}

type Input struct {
	Name    string
	Phone   string
	Bio     string
	Address string
}

// Upload is an avatar file taken from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type Service struct {
	store     Store
	storage   storage.Storage
	maxAvatar int64
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewService(store Store, st storage.Storage, maxAvatar int64, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{store: store, storage: st, maxAvatar: maxAvatar, logger: logger, now: time.Now}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	p, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

// ValidateAvatar is the pre-upload check handlers run before reading the file.
func (s *Service) ValidateAvatar(u *Upload) error {
	if u == nil {
		return nil
	}
	return storage.ValidateImage(u.ContentType, u.Size, s.maxAvatar)
}

// Update saves the text fields. An avatar that fails to upload is logged and
// skipped; the rest of the update still goes through with the old avatar.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input, avatar *Upload) (*models.Profile, error) {
	upd := repository.ProfileUpdate{
		Name:    strings.TrimSpace(in.Name),
		Phone:   strings.TrimSpace(in.Phone),
		Bio:     utils.PlainText(in.Bio),
		Address: strings.TrimSpace(in.Address),
	}

	if avatar != nil && s.storage != nil {
		if url, err := s.uploadAvatar(ctx, id, avatar); err != nil {
			s.logger.Error().Err(err).Str("profile_id", id.String()).Msg("avatar upload failed")
		} else {
			upd.AvatarURL = &url
		}
	}

	p, err := s.store.Update(ctx, id, upd)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

func (s *Service) uploadAvatar(ctx context.Context, id uuid.UUID, u *Upload) (string, error) {
	if err := s.ValidateAvatar(u); err != nil {
		return "", err
	}
	key := storage.AvatarKey(id, u.Filename, s.now())
	return s.storage.Put(ctx, key, u.Reader, u.Size, u.ContentType)
}

func (s *Service) List(ctx context.Context) ([]models.Profile, error) {
	out, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return out, nil
}
