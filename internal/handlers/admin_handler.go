package handlers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Windi-Fikriyansyah/skilllink/internal/services/admin"
)

type AdminHandler struct {
	Admin  *admin.Service
	Logger *zerolog.Logger
}

func NewAdminHandler(svc *admin.Service, logger *zerolog.Logger) *AdminHandler {
	return &AdminHandler{Admin: svc, Logger: logger}
}

func (h *AdminHandler) Users(c *fiber.Ctx) error {
	users, err := h.Admin.Users(c.UserContext())
	if err != nil {
		h.Logger.Error().Err(err).Msg("admin list users")
		return fail(c, fiber.StatusInternalServerError, "Failed to load users")
	}
	return c.JSON(fiber.Map{"success": true, "data": users})
}

func (h *AdminHandler) Skills(c *fiber.Ctx) error {
	skills, err := h.Admin.Skills(c.UserContext())
	if err != nil {
		h.Logger.Error().Err(err).Msg("admin list skills")
		return fail(c, fiber.StatusInternalServerError, "Failed to load skills")
	}
	return c.JSON(fiber.Map{"success": true, "data": skills})
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Export downloads users and skills as a spreadsheet.
func (h *AdminHandler) Export(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.Admin.Export(c.UserContext(), &buf); err != nil {
		h.Logger.Error().Err(err).Msg("admin export")
		return fail(c, fiber.StatusInternalServerError, "Failed to build export")
	}

	name := fmt.Sprintf("skilllink-%s.xlsx", time.Now().Format("20060102"))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Send(buf.Bytes())
}
