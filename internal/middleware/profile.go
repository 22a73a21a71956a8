package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
)

type ProfileLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

type profileLoader func() (*models.Profile, error)

// ResolveProfile installs a lazy loader for the caller's profile. Nothing is
// queried until a handler asks via CurrentProfile.
func ResolveProfile(profiles ProfileLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := UserID(c)
		if !ok {
			return c.Next()
		}
		ctx := c.UserContext()
		c.Locals(localLoader, profileLoader(func() (*models.Profile, error) {
			return profiles.GetByID(ctx, id)
		}))
		return c.Next()
	}
}

// CurrentProfile returns the caller's profile, loading it at most once per
// request. It returns nil for anonymous callers and for sessions whose
// profile row is gone.
func CurrentProfile(c *fiber.Ctx) *models.Profile {
	if p, ok := c.Locals(localProfile).(*models.Profile); ok {
		return p
	}
	load, ok := c.Locals(localLoader).(profileLoader)
	if !ok {
		return nil
	}

	p, err := load()
	if err != nil {
		// cache the miss too
		c.Locals(localProfile, (*models.Profile)(nil))
		return nil
	}
	c.Locals(localProfile, p)
	return p
}
