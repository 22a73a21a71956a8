package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
	"github.com/Windi-Fikriyansyah/skilllink/internal/utils"
)

const secret = "0123456789abcdef0123"

type lookupStub struct {
	profiles map[uuid.UUID]*models.Profile
	calls    int
}

func (s *lookupStub) GetByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	s.calls++
	if p, ok := s.profiles[id]; ok {
		return p, nil
	}
	return nil, errors.New("not found")
}

func newApp(lookup ProfileLookup) *fiber.App {
	app := fiber.New()
	app.Use(OptionalSession(secret), AttachJWTLocals(), ResolveProfile(lookup))
	return app
}

func token(t *testing.T, uid uuid.UUID, role models.Role) string {
	t.Helper()
	tok, err := utils.SignJWT(secret, uid.String(), string(role), 5)
	require.NoError(t, err)
	return tok
}

func decode(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestSessionResolution(t *testing.T) {
	id := uuid.New()
	stub := &lookupStub{profiles: map[uuid.UUID]*models.Profile{id: {ID: id, Name: "Ayu", Role: models.RoleProvider}}}
	app := newApp(stub)
	app.Get("/me", func(c *fiber.Ctx) error {
		p := CurrentProfile(c)
		_ = CurrentProfile(c)
		if p == nil {
			return c.JSON(fiber.Map{"data": nil})
		}
		return c.JSON(fiber.Map{"data": p.Name, "role": Role(c)})
	})

	t.Run("Cookie", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/me", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token(t, id, models.RoleProvider)})
		resp, err := app.Test(req)
		require.NoError(t, err)
		body := decode(t, resp.Body)
		assert.Equal(t, "Ayu", body["data"])
		assert.Equal(t, "provider", body["role"])
		assert.Equal(t, 1, stub.calls, "profile loaded once per request")
	})

	t.Run("Bearer", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, id, models.RoleProvider))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, "Ayu", decode(t, resp.Body)["data"])
	})

	t.Run("QueryToken", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/me?token="+token(t, id, models.RoleProvider), nil))
		require.NoError(t, err)
		assert.Equal(t, "Ayu", decode(t, resp.Body)["data"])
	})

	t.Run("Anonymous", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
		require.NoError(t, err)
		assert.Nil(t, decode(t, resp.Body)["data"])
	})

	t.Run("BadSignature", func(t *testing.T) {
		forged, err := utils.SignJWT("some-other-secret-key", id.String(), "admin", 5)
		require.NoError(t, err)
		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Bearer "+forged)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Nil(t, decode(t, resp.Body)["data"])
	})

	t.Run("DeletedProfile", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, uuid.New(), models.RoleUser))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Nil(t, decode(t, resp.Body)["data"])
	})
}

func TestRequireSessionAndRoles(t *testing.T) {
	app := newApp(&lookupStub{})
	ok := func(c *fiber.Ctx) error { return c.SendString("ok") }
	app.Get("/private", RequireSession(), ok)
	app.Get("/admin", RequireRoles(models.RoleAdmin), ok)

	resp, err := app.Test(httptest.NewRequest("GET", "/private", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "/auth/login", decode(t, resp.Body)["redirect"])

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, uuid.New(), models.RoleUser))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "/dashboard", decode(t, resp.Body)["redirect"])

	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, uuid.New(), models.RoleAdmin))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	app := fiber.New()
	app.Post("/login", RateLimit(0.001, 2), func(c *fiber.Ctx) error { return c.SendString("ok") })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	app := fiber.New()
	app.Use(RequestLogger(&logger))
	app.Get("/boom", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "nope") })

	req := httptest.NewRequest("GET", "/boom", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "req-1", resp.Header.Get(HeaderRequestID))

	line := decode(t, &buf)
	assert.Equal(t, "req-1", line["request_id"])
	assert.EqualValues(t, fiber.StatusTeapot, line["status"])
	assert.Equal(t, "warn", line["level"])
}
