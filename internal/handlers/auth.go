package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Windi-Fikriyansyah/skilllink/internal/middleware"
	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
	"github.com/Windi-Fikriyansyah/skilllink/internal/services/auth"
	"github.com/Windi-Fikriyansyah/skilllink/internal/utils"
)

type AuthHandler struct {
	Auth         *auth.Service
	JWTSecret    string
	Expires      int
	CookieSecure bool
	Logger       *zerolog.Logger
}

type SignUpReq struct {
	Name            string `json:"name" form:"name" validate:"required,min=2"`
	Email           string `json:"email" form:"email" validate:"required,email"`
	Phone           string `json:"phone" form:"phone" validate:"required,min=10"`
	Password        string `json:"password" form:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required,eqfield=Password"`
	Role            string `json:"role" form:"role" validate:"required,oneof=user provider"`
}

func userPayload(p *models.Profile) fiber.Map {
	return fiber.Map{
		"id":    p.ID,
		"name":  p.Name,
		"email": p.Email,
		"phone": p.Phone,
		"role":  p.Role,
	}
}

func (h *AuthHandler) issueSession(c *fiber.Ctx, p *models.Profile) error {
	token, err := utils.SignJWT(h.JWTSecret, p.ID.String(), string(p.Role), h.Expires)
	if err != nil {
		return err
	}
	middleware.SetSessionCookie(c, token, h.Expires, h.CookieSecure)
	return nil
}

func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req SignUpReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))

	if errs := check(req); errs != nil {
		return validationFail(c, errs)
	}

	res, err := h.Auth.SignUp(c.UserContext(), auth.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     models.Role(req.Role),
	})
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		errs := FieldErrors{}
		errs.Add("email", "Email is already registered")
		return validationFail(c, errs)
	case errors.Is(err, auth.ErrInvalidRole):
		errs := FieldErrors{}
		errs.Add("role", "Role is not allowed")
		return validationFail(c, errs)
	case err != nil:
		h.Logger.Error().Err(err).Msg("signup failed")
		return fail(c, fiber.StatusInternalServerError, "Sign up failed")
	}

	if res.NeedsConfirmation {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"message": "Check your email to confirm your account",
			"data": fiber.Map{
				"user":               userPayload(res.Profile),
				"needs_confirmation": true,
				"redirect":           "/auth/check-email",
			},
		})
	}

	if err := h.issueSession(c, res.Profile); err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to create session")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Sign up successful",
		"data": fiber.Map{
			"user":     userPayload(res.Profile),
			"redirect": "/dashboard",
		},
	})
}

type LoginReq struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusOK, "Invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if errs := check(req); errs != nil {
		return validationFail(c, errs)
	}

	p, err := h.Auth.SignIn(c.UserContext(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		// 200 so the form shows the message instead of a fetch error
		return fail(c, fiber.StatusOK, "Invalid email or password")
	case errors.Is(err, auth.ErrEmailNotConfirmed):
		return c.JSON(fiber.Map{
			"success": false,
			"code":    "email_not_confirmed",
			"message": "Email not confirmed",
			"data":    fiber.Map{"email": req.Email},
		})
	case err != nil:
		h.Logger.Error().Err(err).Msg("login failed")
		return fail(c, fiber.StatusInternalServerError, "Login failed")
	}

	if err := h.issueSession(c, p); err != nil {
		return fail(c, fiber.StatusOK, "Failed to create session")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"data": fiber.Map{
			"user":     userPayload(p),
			"redirect": "/dashboard",
		},
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	middleware.ClearSessionCookie(c, h.CookieSecure)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged out",
		"data":    fiber.Map{"redirect": "/auth/login"},
	})
}

type EmailReq struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req EmailReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if errs := check(req); errs != nil {
		return validationFail(c, errs)
	}

	if err := h.Auth.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		h.Logger.Error().Err(err).Msg("password reset request failed")
		return fail(c, fiber.StatusInternalServerError, "Could not send reset email")
	}
	return ok(c, "If the email is registered, a reset link is on its way", nil)
}

type ResetPasswordReq struct {
	Token           string `json:"token" form:"token" validate:"required"`
	Password        string `json:"password" form:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required"`
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if errs := check(req); errs != nil {
		return validationFail(c, errs)
	}

	err := h.Auth.ResetPassword(c.UserContext(), req.Token, req.Password, req.ConfirmPassword)
	switch {
	case errors.Is(err, auth.ErrPasswordMismatch):
		errs := FieldErrors{}
		errs.Add("confirm_password", "Passwords do not match")
		return validationFail(c, errs)
	case errors.Is(err, auth.ErrInvalidToken):
		return fail(c, fiber.StatusBadRequest, "Reset link is invalid or expired")
	case err != nil:
		h.Logger.Error().Err(err).Msg("password reset failed")
		return fail(c, fiber.StatusInternalServerError, "Password reset failed")
	}
	return ok(c, "Password updated", fiber.Map{"redirect": "/auth/login"})
}

// Verify consumes the emailed confirmation token and signs the user in.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return fail(c, fiber.StatusBadRequest, "Missing token")
	}

	p, err := h.Auth.ConfirmEmail(c.UserContext(), token)
	if errors.Is(err, auth.ErrInvalidToken) {
		return fail(c, fiber.StatusBadRequest, "Confirmation link is invalid or expired")
	}
	if err != nil {
		h.Logger.Error().Err(err).Msg("email confirmation failed")
		return fail(c, fiber.StatusInternalServerError, "Confirmation failed")
	}

	if err := h.issueSession(c, p); err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to create session")
	}

	next := c.Query("next", "/auth/verified")
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = "/auth/verified"
	}
	return ok(c, "Email confirmed", fiber.Map{"user": userPayload(p), "redirect": next})
}

func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	var req EmailReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if errs := check(req); errs != nil {
		return validationFail(c, errs)
	}

	err := h.Auth.ResendVerification(c.UserContext(), req.Email)
	if errors.Is(err, auth.ErrAlreadyConfirmed) {
		return ok(c, "Email already confirmed", fiber.Map{"redirect": "/auth/login"})
	}
	if err != nil {
		h.Logger.Error().Err(err).Msg("resend verification failed")
		return fail(c, fiber.StatusInternalServerError, "Could not send confirmation email")
	}
	return ok(c, "Confirmation email sent", nil)
}
