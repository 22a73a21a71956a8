package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Windi-Fikriyansyah/skilllink/internal/services/skill"
)

type CategoryHandler struct {
	Skills *skill.Service
	Logger *zerolog.Logger
}

func NewCategoryHandler(skills *skill.Service, logger *zerolog.Logger) *CategoryHandler {
	return &CategoryHandler{Skills: skills, Logger: logger}
}

func (h *CategoryHandler) GetCategories(c *fiber.Ctx) error {
	categories, err := h.Skills.Categories(c.UserContext())
	if err != nil {
		h.Logger.Error().Err(err).Msg("list categories")
		return fail(c, fiber.StatusInternalServerError, "Failed to load categories")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    categories,
	})
}
