package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
)

// RequireSession rejects anonymous requests with a hint to the login page.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := UserID(c); !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success":  false,
				"message":  "Unauthorized",
				"redirect": "/auth/login",
			})
		}
		return c.Next()
	}
}

// RequireRoles checks the role carried by the session token. Mount it after
// RequireSession.
func RequireRoles(allowed ...models.Role) fiber.Handler {
	allowedSet := map[models.Role]bool{}
	for _, r := range allowed {
		allowedSet[r] = true
	}

	return func(c *fiber.Ctx) error {
		if _, ok := UserID(c); !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success":  false,
				"message":  "Unauthorized",
				"redirect": "/auth/login",
			})
		}
		if !allowedSet[Role(c)] {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success":  false,
				"message":  "forbidden: insufficient role",
				"redirect": "/dashboard",
			})
		}
		return c.Next()
	}
}
