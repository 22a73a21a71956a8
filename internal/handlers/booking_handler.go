package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Windi-Fikriyansyah/skilllink/internal/middleware"
	"github.com/Windi-Fikriyansyah/skilllink/internal/services/booking"
)

type BookingHandler struct {
	Bookings *booking.Service
	// Strict routes status changes through the participant and transition checks.
	Strict bool
	Logger *zerolog.Logger
}

func NewBookingHandler(bookings *booking.Service, strict bool, logger *zerolog.Logger) *BookingHandler {
	return &BookingHandler{Bookings: bookings, Strict: strict, Logger: logger}
}

type CreateBookingReq struct {
	SkillID    string `json:"skill_id" form:"skill_id" validate:"required,uuid"`
	ProviderID string `json:"provider_id" form:"provider_id" validate:"required,uuid"`
	Date       string `json:"date" form:"date" validate:"required"`
}

var bookingDateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

func parseBookingDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range bookingDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func (h *BookingHandler) Create(c *fiber.Ctx) error {
	var req CreateBookingReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	errs := check(req)
	date, okDate := parseBookingDate(req.Date)
	if req.Date != "" && !okDate {
		if errs == nil {
			errs = FieldErrors{}
		}
		errs.Add("date", "Must be a date (YYYY-MM-DD) or RFC 3339 time")
	}
	if errs != nil {
		return validationFail(c, errs)
	}

	b, err := h.Bookings.CreateBooking(c.UserContext(), middleware.CurrentProfile(c),
		uuid.MustParse(req.ProviderID), uuid.MustParse(req.SkillID), date)
	switch {
	case errors.Is(err, booking.ErrUnauthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success":  false,
			"message":  "Sign in to book",
			"redirect": "/auth/login",
		})
	case err != nil:
		h.Logger.Error().Err(err).Msg("create booking")
		return fail(c, fiber.StatusInternalServerError, "Failed to create booking")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Booking requested",
		"data":    b,
	})
}

func (h *BookingHandler) List(c *fiber.Ctx) error {
	uid, _ := middleware.UserID(c)
	lists, err := h.Bookings.ListForProfile(c.UserContext(), uid)
	if err != nil {
		h.Logger.Error().Err(err).Msg("list bookings")
		return fail(c, fiber.StatusInternalServerError, "Failed to load bookings")
	}
	return c.JSON(fiber.Map{"success": true, "data": lists})
}

func (h *BookingHandler) Get(c *fiber.Ctx) error {
	uid, _ := middleware.UserID(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid booking ID")
	}

	v, err := h.Bookings.Get(c.UserContext(), uid, id)
	switch {
	case errors.Is(err, booking.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "Booking not found")
	case errors.Is(err, booking.ErrNotParticipant):
		return fail(c, fiber.StatusForbidden, err.Error())
	case err != nil:
		h.Logger.Error().Err(err).Str("booking_id", id.String()).Msg("get booking")
		return fail(c, fiber.StatusInternalServerError, "Failed to load booking")
	}
	return c.JSON(fiber.Map{"success": true, "data": v})
}

type UpdateStatusReq struct {
	Status string `json:"status" form:"status" validate:"required"`
}

func (h *BookingHandler) UpdateStatus(c *fiber.Ctx) error {
	uid, _ := middleware.UserID(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid booking ID")
	}

	var req UpdateStatusReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if errs := check(req); errs != nil {
		return validationFail(c, errs)
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))

	if h.Strict {
		_, err = h.Bookings.Transition(c.UserContext(), uid, id, status)
	} else {
		err = h.Bookings.UpdateBookingStatus(c.UserContext(), id, status)
	}

	switch {
	case errors.Is(err, booking.ErrInvalidStatus):
		errs := FieldErrors{}
		errs.Add("status", "Must be one of: pending, approved, rejected, completed")
		return validationFail(c, errs)
	case errors.Is(err, booking.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "Booking not found")
	case errors.Is(err, booking.ErrNotParticipant), errors.Is(err, booking.ErrNotAllowed):
		return fail(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, booking.ErrIllegalTransition), errors.Is(err, booking.ErrConcurrentUpdate):
		return fail(c, fiber.StatusConflict, err.Error())
	case err != nil:
		h.Logger.Error().Err(err).Str("booking_id", id.String()).Msg("update booking status")
		return fail(c, fiber.StatusInternalServerError, "Failed to update booking")
	}

	v, err := h.Bookings.Get(c.UserContext(), uid, id)
	if err != nil {
		// not a participant in lenient mode; the write still happened
		return ok(c, "Booking updated", fiber.Map{"id": id, "status": status})
	}
	return ok(c, "Booking updated", v)
}

func (h *BookingHandler) Earnings(c *fiber.Ctx) error {
	uid, _ := middleware.UserID(c)
	e, err := h.Bookings.Earnings(c.UserContext(), uid)
	if err != nil {
		h.Logger.Error().Err(err).Msg("earnings")
		return fail(c, fiber.StatusInternalServerError, "Failed to load earnings")
	}
	return c.JSON(fiber.Map{"success": true, "data": e})
}

func (h *BookingHandler) Payments(c *fiber.Ctx) error {
	uid, _ := middleware.UserID(c)
	p, err := h.Bookings.PaymentHistory(c.UserContext(), uid)
	if err != nil {
		h.Logger.Error().Err(err).Msg("payment history")
		return fail(c, fiber.StatusInternalServerError, "Failed to load payments")
	}
	return c.JSON(fiber.Map{"success": true, "data": p})
}

// Calendar takes ?month=YYYY-MM and defaults to the current month.
func (h *BookingHandler) Calendar(c *fiber.Ctx) error {
	uid, _ := middleware.UserID(c)

	month := time.Now().UTC()
	if m := c.Query("month"); m != "" {
		parsed, err := time.Parse("2006-01", m)
		if err != nil {
			errs := FieldErrors{}
			errs.Add("month", "Must look like 2025-07")
			return validationFail(c, errs)
		}
		month = parsed
	}

	days, err := h.Bookings.Calendar(c.UserContext(), uid, month)
	if err != nil {
		h.Logger.Error().Err(err).Msg("booking calendar")
		return fail(c, fiber.StatusInternalServerError, "Failed to load calendar")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"month": month.Format("2006-01"),
			"days":  days,
		},
	})
}
