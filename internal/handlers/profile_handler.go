package handlers

import (
	"errors"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Windi-Fikriyansyah/skilllink/internal/middleware"
	"github.com/Windi-Fikriyansyah/skilllink/internal/services/profile"
)

type ProfileHandler struct {
	Profiles *profile.Service
	Logger   *zerolog.Logger
}

func NewProfileHandler(profiles *profile.Service, logger *zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{Profiles: profiles, Logger: logger}
}

// Me never fails for anonymous callers; data is null instead.
func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	p := middleware.CurrentProfile(c)
	if p == nil {
		return c.JSON(fiber.Map{"success": true, "data": nil})
	}
	return c.JSON(fiber.Map{"success": true, "data": p})
}

func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	p := middleware.CurrentProfile(c)
	if p == nil {
		return fail(c, fiber.StatusNotFound, "Profile not found")
	}
	return c.JSON(fiber.Map{"success": true, "data": p})
}

type UpdateProfileReq struct {
	Name    string `json:"name" form:"name" validate:"required,min=2"`
	Phone   string `json:"phone" form:"phone"`
	Bio     string `json:"bio" form:"bio"`
	Address string `json:"address" form:"address"`
}

// Update accepts JSON or multipart; the multipart form may carry an "avatar" file.
func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	p := middleware.CurrentProfile(c)
	if p == nil {
		return fail(c, fiber.StatusNotFound, "Profile not found")
	}

	var req UpdateProfileReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if errs := check(req); errs != nil {
		return validationFail(c, errs)
	}

	var avatar *profile.Upload
	if fh, err := c.FormFile("avatar"); err == nil && fh != nil {
		up, err := h.openUpload(fh)
		if err != nil {
			errs := FieldErrors{}
			errs.Add("avatar", err.Error())
			return validationFail(c, errs)
		}
		avatar = up
		if closer, ok := up.Reader.(multipart.File); ok {
			defer closer.Close()
		}
	}

	updated, err := h.Profiles.Update(c.UserContext(), p.ID, profile.Input{
		Name:    req.Name,
		Phone:   req.Phone,
		Bio:     req.Bio,
		Address: req.Address,
	}, avatar)
	if errors.Is(err, profile.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "Profile not found")
	}
	if err != nil {
		h.Logger.Error().Err(err).Str("profile_id", p.ID.String()).Msg("profile update failed")
		return fail(c, fiber.StatusInternalServerError, "Failed to update profile")
	}
	return ok(c, "Profile updated", updated)
}

func (h *ProfileHandler) openUpload(fh *multipart.FileHeader) (*profile.Upload, error) {
	up := &profile.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
	}
	if err := h.Profiles.ValidateAvatar(up); err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	up.Reader = f
	return up, nil
}
