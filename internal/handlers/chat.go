package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Windi-Fikriyansyah/skilllink/internal/middleware"
	"github.com/Windi-Fikriyansyah/skilllink/internal/realtime"
	"github.com/Windi-Fikriyansyah/skilllink/internal/services/chat"
)

type ChatHandler struct {
	Chats  *chat.Service
	Broker realtime.Broker
	Logger *zerolog.Logger
}

func NewChatHandler(chats *chat.Service, broker realtime.Broker, logger *zerolog.Logger) *ChatHandler {
	return &ChatHandler{Chats: chats, Broker: broker, Logger: logger}
}

// chatError maps chat service errors onto the JSON envelope.
func (h *ChatHandler) chatError(c *fiber.Ctx, err error, what string) error {
	switch {
	case errors.Is(err, chat.ErrChatNotFound):
		return fail(c, fiber.StatusNotFound, "Chat not found")
	case errors.Is(err, chat.ErrNotParticipant):
		return fail(c, fiber.StatusForbidden, "Access denied")
	case errors.Is(err, chat.ErrUserNotFound):
		return fail(c, fiber.StatusNotFound, "User not found")
	case errors.Is(err, chat.ErrSameParticipant):
		return fail(c, fiber.StatusBadRequest, "Cannot chat with yourself")
	case errors.Is(err, chat.ErrEmptyMessage):
		errs := FieldErrors{}
		errs.Add("message", "Message is required")
		return validationFail(c, errs)
	}
	h.Logger.Error().Err(err).Msg(what)
	return fail(c, fiber.StatusInternalServerError, "Failed to "+what)
}

type CreateChatReq struct {
	ParticipantID string `json:"participant_id" form:"participant_id" validate:"required,uuid"`
}

// CreateOrGet opens the chat with another profile, reusing an existing one.
func (h *ChatHandler) CreateOrGet(c *fiber.Ctx) error {
	uid, _ := middleware.UserID(c)

	var req CreateChatReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request")
	}
	if errs := check(req); errs != nil {
		return validationFail(c, errs)
	}

	conv, created, err := h.Chats.CreateOrGetChat(c.UserContext(), uid, uuid.MustParse(req.ParticipantID))
	if err != nil {
		return h.chatError(c, err, "open chat")
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"created": created,
		"data":    conv,
	})
}

func (h *ChatHandler) List(c *fiber.Ctx) error {
	uid, _ := middleware.UserID(c)
	out, err := h.Chats.ListChats(c.UserContext(), uid)
	if err != nil {
		return h.chatError(c, err, "load chats")
	}
	return c.JSON(fiber.Map{"success": true, "data": out})
}

func (h *ChatHandler) Get(c *fiber.Ctx) error {
	uid, _ := middleware.UserID(c)
	chatID, err := parseChatID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid chat ID")
	}

	conv, err := h.Chats.GetChat(c.UserContext(), uid, chatID)
	if err != nil {
		return h.chatError(c, err, "load chat")
	}
	return c.JSON(fiber.Map{"success": true, "data": conv})
}

func (h *ChatHandler) Messages(c *fiber.Ctx) error {
	uid, _ := middleware.UserID(c)
	chatID, err := parseChatID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid chat ID")
	}

	msgs, err := h.Chats.Messages(c.UserContext(), uid, chatID)
	if err != nil {
		return h.chatError(c, err, "load messages")
	}
	return c.JSON(fiber.Map{"success": true, "data": msgs})
}

type SendMessageReq struct {
	Message string `json:"message" form:"message"`
}

// Send persists the message. The sender sees it through the realtime echo
// like everyone else; the response carries the stored row for convenience.
func (h *ChatHandler) Send(c *fiber.Ctx) error {
	uid, _ := middleware.UserID(c)
	chatID, err := parseChatID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid chat ID")
	}

	var req SendMessageReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request")
	}

	if _, err := h.Chats.GetChat(c.UserContext(), uid, chatID); err != nil {
		return h.chatError(c, err, "load chat")
	}

	msg, err := h.Chats.SendMessage(c.UserContext(), chatID, uid, req.Message)
	if err != nil {
		return h.chatError(c, err, "send message")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    msg,
	})
}

func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	uid, _ := middleware.UserID(c)
	chatID, err := parseChatID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid chat ID")
	}

	n, err := h.Chats.MarkRead(c.UserContext(), uid, chatID)
	if err != nil {
		return h.chatError(c, err, "mark messages as read")
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"marked": n}})
}

func (h *ChatHandler) UnreadTotal(c *fiber.Ctx) error {
	uid, _ := middleware.UserID(c)
	n, err := h.Chats.UnreadTotal(c.UserContext(), uid)
	if err != nil {
		return h.chatError(c, err, "count unread messages")
	}
	return c.JSON(fiber.Map{"success": true, "data": n})
}
