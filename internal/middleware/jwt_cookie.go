package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/skilllink/internal/utils"
)

const CookieName = "sl_token"

// TokenFromRequest looks at the session cookie, then a Bearer header, then
// the ?token= query (browsers cannot set headers on a WebSocket upgrade).
func TokenFromRequest(c *fiber.Ctx) string {
	if tok := c.Cookies(CookieName); tok != "" {
		return tok
	}
	if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return c.Query("token")
}

// OptionalSession parses the session token when one is sent. A missing or
// invalid token leaves the request anonymous; RequireSession decides.
func OptionalSession(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := TokenFromRequest(c)
		if tokenStr == "" {
			return c.Next()
		}

		claims, err := utils.ParseJWT(secret, tokenStr)
		if err != nil {
			return c.Next()
		}

		c.Locals(localClaims, claims)
		return c.Next()
	}
}

func SetSessionCookie(c *fiber.Ctx, token string, expiresMin int, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(time.Duration(expiresMin) * time.Minute),
	})
}

func ClearSessionCookie(c *fiber.Ctx, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}
