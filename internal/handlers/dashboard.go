package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Windi-Fikriyansyah/skilllink/internal/middleware"
	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
	"github.com/Windi-Fikriyansyah/skilllink/internal/services/booking"
	"github.com/Windi-Fikriyansyah/skilllink/internal/services/chat"
	"github.com/Windi-Fikriyansyah/skilllink/internal/services/skill"
)

type DashboardHandler struct {
	Bookings *booking.Service
	Chats    *chat.Service
	Skills   *skill.Service
	Logger   *zerolog.Logger
}

// GetDashboard returns the caller's profile with the counters the dashboard shows.
// Counter failures are logged and reported as zero.
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	p := middleware.CurrentProfile(c)
	if p == nil {
		return fail(c, fiber.StatusNotFound, "Profile not found")
	}
	ctx := c.UserContext()
	stats := fiber.Map{}

	if lists, err := h.Bookings.ListForProfile(ctx, p.ID); err != nil {
		h.Logger.Error().Err(err).Str("profile_id", p.ID.String()).Msg("dashboard bookings")
	} else {
		pending := 0
		for _, b := range lists.Incoming {
			if b.Status == models.BookingPending {
				pending++
			}
		}
		stats["incoming_bookings"] = len(lists.Incoming)
		stats["pending_requests"] = pending
		stats["your_bookings"] = len(lists.Yours)
	}

	unread, err := h.Chats.UnreadTotal(ctx, p.ID)
	if err != nil {
		h.Logger.Error().Err(err).Str("profile_id", p.ID.String()).Msg("dashboard unread")
	}
	stats["unread_messages"] = unread

	if p.IsProvider() {
		n, err := h.Skills.CountByProvider(ctx, p.ID)
		if err != nil {
			h.Logger.Error().Err(err).Str("profile_id", p.ID.String()).Msg("dashboard skills")
		}
		stats["skills"] = n

		if e, err := h.Bookings.Earnings(ctx, p.ID); err == nil {
			stats["earnings"] = e.Total
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"profile": p,
			"stats":   stats,
		},
	})
}
