package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/Windi-Fikriyansyah/skilllink/internal/services/auth"
	"github.com/Windi-Fikriyansyah/skilllink/internal/utils"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type GoogleOAuthHandler struct {
	Auth            *auth.Service
	Session         *AuthHandler
	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FrontendBaseURL string
	Logger          *zerolog.Logger

	// overridable in tests
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

func (h *GoogleOAuthHandler) oauthCfg() *oauth2.Config {
	ep := h.Endpoint
	if ep.AuthURL == "" {
		ep = google.Endpoint
	}
	return &oauth2.Config{
		ClientID:     h.GoogleClientID,
		ClientSecret: h.GoogleSecret,
		RedirectURL:  h.GoogleRedirect,
		Endpoint:     ep,
		Scopes:       []string{"openid", "email", "profile"},
	}
}

func (h *GoogleOAuthHandler) tempCookie(c *fiber.Ctx, name, value string, maxAge int) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.Session.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/dashboard"
	}
	return next
}

func (h *GoogleOAuthHandler) GoogleStart(c *fiber.Ctx) error {
	if h.GoogleClientID == "" {
		return fail(c, fiber.StatusNotFound, "Google sign-in is not configured")
	}

	st := utils.RandomToken(32)
	h.tempCookie(c, "oauth_state", st, 10*60)
	h.tempCookie(c, "oauth_next", safeNext(c.Query("next", "/dashboard")), 10*60)

	return c.Redirect(h.oauthCfg().AuthCodeURL(st), http.StatusTemporaryRedirect)
}

type googleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (h *GoogleOAuthHandler) loginError(c *fiber.Ctx, msg string) error {
	target := strings.TrimRight(h.FrontendBaseURL, "/") + "/auth/login?err=" + url.QueryEscape(msg)
	return c.Redirect(target, http.StatusTemporaryRedirect)
}

func (h *GoogleOAuthHandler) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Missing code/state")
	}

	if st := c.Cookies("oauth_state"); st == "" || st != state {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid state")
	}
	next := safeNext(c.Cookies("oauth_next", "/dashboard"))

	cfg := h.oauthCfg()
	tok, err := cfg.Exchange(c.UserContext(), code)
	if err != nil {
		h.Logger.Warn().Err(err).Msg("google code exchange failed")
		return h.loginError(c, "Google sign-in failed")
	}

	infoURL := h.UserInfoURL
	if infoURL == "" {
		infoURL = googleUserInfoURL
	}
	resp, err := cfg.Client(c.UserContext(), tok).Get(infoURL)
	if err != nil {
		h.Logger.Warn().Err(err).Msg("google userinfo request failed")
		return h.loginError(c, "Google sign-in failed")
	}
	defer resp.Body.Close()

	var gu googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil || strings.TrimSpace(gu.Email) == "" {
		return h.loginError(c, "Google did not return an email")
	}
	if !gu.VerifiedEmail {
		return h.loginError(c, "Google email is not verified")
	}

	p, err := h.Auth.GoogleSignIn(c.UserContext(), gu.Email, gu.Name)
	if err != nil {
		h.Logger.Error().Err(err).Msg("google sign-in failed")
		return h.loginError(c, "Google sign-in failed")
	}
	if err := h.Session.issueSession(c, p); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to sign jwt")
	}

	h.tempCookie(c, "oauth_state", "", -1)
	h.tempCookie(c, "oauth_next", "", -1)

	return c.Redirect(strings.TrimRight(h.FrontendBaseURL, "/")+next, http.StatusTemporaryRedirect)
}
