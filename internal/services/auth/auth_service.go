package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
	"github.com/Windi-Fikriyansyah/skilllink/internal/repository"
	"github.com/Windi-Fikriyansyah/skilllink/internal/services/mailer"
	"github.com/Windi-Fikriyansyah/skilllink/internal/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidRole        = errors.New("role not allowed at signup")
	ErrAlreadyConfirmed   = errors.New("email already confirmed")
)

type AccountStore interface {
	CreateWithProfile(ctx context.Context, a *models.Account, p *models.Profile) error
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	MarkEmailConfirmed(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
}

type ProfileLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

type TokenStore interface {
	Create(ctx context.Context, t *models.AuthToken) error
	Consume(ctx context.Context, hash string, purpose models.TokenPurpose, now time.Time) (*models.AuthToken, error)
}

type Options struct {
	// AutoConfirm skips email verification, the account can sign in at once.
	AutoConfirm     bool
	FrontendBaseURL string
	VerifyTTL       time.Duration
	ResetTTL        time.Duration
}

type Service struct {
	accounts AccountStore
	profiles ProfileLookup
	tokens   TokenStore
	mail     mailer.Mailer
	opts     Options
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewService(accounts AccountStore, profiles ProfileLookup, tokens TokenStore, mail mailer.Mailer, opts Options, logger *zerolog.Logger) *Service {
	if opts.VerifyTTL <= 0 {
		opts.VerifyTTL = 24 * time.Hour
	}
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = time.Hour
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{
		accounts: accounts,
		profiles: profiles,
		tokens:   tokens,
		mail:     mail,
		opts:     opts,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type SignUpInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Role     models.Role
}

type SignUpResult struct {
	Profile *models.Profile
	// NeedsConfirmation means no session should be issued yet.
	NeedsConfirmation bool
}

func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*SignUpResult, error) {
	email := normalizeEmail(in.Email)
	if !in.Role.SignupRole() {
		return nil, ErrInvalidRole
	}

	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	meta := models.SignupMetadata{Name: strings.TrimSpace(in.Name), Phone: strings.TrimSpace(in.Phone), Role: in.Role}
	acc := &models.Account{
		Email:        email,
		PasswordHash: hash,
		Provider:     models.AuthProviderPassword,
		Metadata:     meta.JSON(),
	}
	if s.opts.AutoConfirm {
		now := s.now()
		acc.EmailConfirmedAt = &now
	}
	prof := &models.Profile{
		Name:  meta.Name,
		Email: email,
		Phone: meta.Phone,
		Role:  meta.Role,
	}

	if err := s.accounts.CreateWithProfile(ctx, acc, prof); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	if s.opts.AutoConfirm {
		return &SignUpResult{Profile: prof}, nil
	}

	if err := s.sendVerification(ctx, acc.ID, email, prof.Name); err != nil {
		// account exists; the user can ask for a resend
		s.logger.Error().Err(err).Str("account_id", acc.ID.String()).Msg("verification email not sent")
	}
	return &SignUpResult{Profile: prof, NeedsConfirmation: true}, nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*models.Profile, error) {
	acc, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	if !utils.CheckPassword(acc.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !acc.Confirmed() {
		return nil, ErrEmailNotConfirmed
	}

	return s.profile(ctx, acc.ID)
}

func (s *Service) ConfirmEmail(ctx context.Context, token string) (*models.Profile, error) {
	tok, err := s.tokens.Consume(ctx, utils.HashToken(token), models.TokenVerifyEmail, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("consume token: %w", err)
	}

	if err := s.accounts.MarkEmailConfirmed(ctx, tok.AccountID, s.now()); err != nil {
		return nil, fmt.Errorf("confirm email: %w", err)
	}
	return s.profile(ctx, tok.AccountID)
}

func (s *Service) ResendVerification(ctx context.Context, email string) error {
	acc, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup account: %w", err)
	}
	if acc.Confirmed() {
		return ErrAlreadyConfirmed
	}

	name := acc.Email
	if p, err := s.profiles.GetByID(ctx, acc.ID); err == nil {
		name = p.Name
	}
	return s.sendVerification(ctx, acc.ID, acc.Email, name)
}

// RequestPasswordReset never reveals whether the email is registered.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	acc, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup account: %w", err)
	}

	raw, err := s.issueToken(ctx, acc.ID, models.TokenResetPassword, s.opts.ResetTTL)
	if err != nil {
		return err
	}
	link := s.link("/auth/update-password", raw)
	return s.mail.Send(ctx, mailer.PasswordResetEmail(acc.Email, link))
}

func (s *Service) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}

	tok, err := s.tokens.Consume(ctx, utils.HashToken(token), models.TokenResetPassword, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("consume token: %w", err)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.accounts.UpdatePassword(ctx, tok.AccountID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	// the reset link proves control of the mailbox
	acc, err := s.accounts.GetByID(ctx, tok.AccountID)
	if err == nil && !acc.Confirmed() {
		if err := s.accounts.MarkEmailConfirmed(ctx, acc.ID, s.now()); err != nil {
			// the password change stands; the account just stays unconfirmed
			s.logger.Warn().Err(err).Str("account_id", acc.ID.String()).Msg("confirm email after reset")
		}
	}
	return nil
}

// GoogleSignIn finds or creates a confirmed account for a Google-verified email.
func (s *Service) GoogleSignIn(ctx context.Context, email, name string) (*models.Profile, error) {
	email = normalizeEmail(email)
	acc, err := s.accounts.GetByEmail(ctx, email)
	if err == nil {
		if !acc.Confirmed() {
			if err := s.accounts.MarkEmailConfirmed(ctx, acc.ID, s.now()); err != nil {
				return nil, fmt.Errorf("confirm email: %w", err)
			}
		}
		return s.profile(ctx, acc.ID)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	// never used for password login
	hash, err := utils.HashPassword(utils.RandomToken(24))
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if strings.TrimSpace(name) == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	now := s.now()
	meta := models.SignupMetadata{Name: strings.TrimSpace(name), Role: models.RoleUser}
	acc = &models.Account{
		Email:            email,
		PasswordHash:     hash,
		Provider:         models.AuthProviderGoogle,
		Metadata:         meta.JSON(),
		EmailConfirmedAt: &now,
	}
	prof := &models.Profile{Name: meta.Name, Email: email, Role: models.RoleUser}
	if err := s.accounts.CreateWithProfile(ctx, acc, prof); err != nil {
		return nil, fmt.Errorf("create google account: %w", err)
	}
	return prof, nil
}

func (s *Service) sendVerification(ctx context.Context, accountID uuid.UUID, email, name string) error {
	raw, err := s.issueToken(ctx, accountID, models.TokenVerifyEmail, s.opts.VerifyTTL)
	if err != nil {
		return err
	}
	link := s.link("/auth/callback", raw) + "&next=" + url.QueryEscape("/auth/verified")
	return s.mail.Send(ctx, mailer.VerificationEmail(email, name, link))
}

func (s *Service) issueToken(ctx context.Context, accountID uuid.UUID, purpose models.TokenPurpose, ttl time.Duration) (string, error) {
	raw := utils.RandomToken(32)
	tok := &models.AuthToken{
		AccountID: accountID,
		Purpose:   purpose,
		TokenHash: utils.HashToken(raw),
		ExpiresAt: s.now().Add(ttl),
	}
	if err := s.tokens.Create(ctx, tok); err != nil {
		return "", fmt.Errorf("store %s token: %w", purpose, err)
	}
	return raw, nil
}

func (s *Service) link(path, token string) string {
	return strings.TrimRight(s.opts.FrontendBaseURL, "/") + path + "?token=" + url.QueryEscape(token)
}

func (s *Service) profile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
