package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
	"github.com/Windi-Fikriyansyah/skilllink/internal/utils"
)

const (
	localClaims  = "claims"
	localUserID  = "userId"
	localRole    = "role"
	localProfile = "profile"
	localLoader  = "profileLoader"
)

// AttachJWTLocals copies parsed claims into userId/role locals. Requests
// without claims, or whose uid is not a uuid, pass through anonymous.
func AttachJWTLocals() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(localClaims).(*utils.Claims)
		if !ok || claims == nil {
			return c.Next()
		}

		uid, err := uuid.Parse(strings.TrimSpace(claims.UserID))
		if err != nil {
			return c.Next()
		}

		c.Locals(localUserID, uid)
		c.Locals(localRole, models.Role(strings.ToLower(strings.TrimSpace(claims.Role))))
		return c.Next()
	}
}

// UserID reports the session subject, false when anonymous.
func UserID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(localUserID).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func Role(c *fiber.Ctx) models.Role {
	r, _ := c.Locals(localRole).(models.Role)
	return r
}
