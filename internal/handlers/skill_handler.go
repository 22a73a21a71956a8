package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Windi-Fikriyansyah/skilllink/internal/middleware"
	"github.com/Windi-Fikriyansyah/skilllink/internal/repository"
	"github.com/Windi-Fikriyansyah/skilllink/internal/services/skill"
)

type SkillHandler struct {
	Skills *skill.Service
	Logger *zerolog.Logger
}

func NewSkillHandler(skills *skill.Service, logger *zerolog.Logger) *SkillHandler {
	return &SkillHandler{Skills: skills, Logger: logger}
}

type CreateSkillReq struct {
	Title       string   `json:"title" form:"title" validate:"required"`
	Category    string   `json:"category" form:"category" validate:"required"`
	Description string   `json:"description" form:"description"`
	Price       *float64 `json:"price" form:"price" validate:"required,gte=0"`
	Experience  string   `json:"experience" form:"experience"`
	Address     string   `json:"address" form:"address"`
}

func (h *SkillHandler) Create(c *fiber.Ctx) error {
	uid, _ := middleware.UserID(c)

	var req CreateSkillReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Category = strings.TrimSpace(req.Category)
	if errs := check(req); errs != nil {
		return validationFail(c, errs)
	}

	sk, err := h.Skills.Create(c.UserContext(), uid, skill.Input{
		Title:       req.Title,
		Category:    req.Category,
		Description: req.Description,
		Price:       *req.Price,
		Experience:  req.Experience,
		Address:     req.Address,
	})
	if err != nil {
		h.Logger.Error().Err(err).Str("provider_id", uid.String()).Msg("create skill")
		return fail(c, fiber.StatusInternalServerError, "Failed to create skill")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Skill created",
		"data":    sk,
	})
}

// List is the public catalogue; ?q= matches titles case-insensitively.
func (h *SkillHandler) List(c *fiber.Ctx) error {
	q := repository.SkillQuery{
		Search:   c.Query("q"),
		Category: c.Query("category"),
		Limit:    c.QueryInt("limit", 50),
		Offset:   c.QueryInt("offset", 0),
	}

	skills, err := h.Skills.List(c.UserContext(), q)
	if err != nil {
		h.Logger.Error().Err(err).Msg("list skills")
		return fail(c, fiber.StatusInternalServerError, "Failed to load skills")
	}
	return c.JSON(fiber.Map{"success": true, "data": skills})
}

func (h *SkillHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid skill ID")
	}

	sk, err := h.Skills.Get(c.UserContext(), id)
	if errors.Is(err, skill.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "Skill not found")
	}
	if err != nil {
		h.Logger.Error().Err(err).Str("skill_id", id.String()).Msg("get skill")
		return fail(c, fiber.StatusInternalServerError, "Failed to load skill")
	}
	return c.JSON(fiber.Map{"success": true, "data": sk})
}

func (h *SkillHandler) ListMine(c *fiber.Ctx) error {
	uid, _ := middleware.UserID(c)

	skills, err := h.Skills.ListByProvider(c.UserContext(), uid)
	if err != nil {
		h.Logger.Error().Err(err).Str("provider_id", uid.String()).Msg("list provider skills")
		return fail(c, fiber.StatusInternalServerError, "Failed to load skills")
	}
	return c.JSON(fiber.Map{"success": true, "data": skills})
}
