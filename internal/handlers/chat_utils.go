package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const localChatID = "chatId"

func parseChatID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

// clientFrame is what browsers send over the chat socket.
type clientFrame struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}
