package handlers

import (
	"context"
	"errors"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Windi-Fikriyansyah/skilllink/internal/middleware"
	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
	"github.com/Windi-Fikriyansyah/skilllink/internal/realtime"
	"github.com/Windi-Fikriyansyah/skilllink/internal/services/chat"
)

const localSocketUser = "socketUser"

// UpgradeChat authorises a chat socket before the protocol switch, while a
// plain HTTP error can still be returned.
func (h *ChatHandler) UpgradeChat(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	uid, ok := middleware.UserID(c)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	chatID, err := parseChatID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid chat ID")
	}
	if _, err := h.Chats.GetChat(c.UserContext(), uid, chatID); err != nil {
		return h.chatError(c, err, "load chat")
	}

	c.Locals(localSocketUser, uid)
	c.Locals(localChatID, chatID)
	return c.Next()
}

// ChatSocket streams one chat: a history frame, then a message frame per new row.
func (h *ChatHandler) ChatSocket(conn *websocket.Conn) {
	uid, _ := conn.Locals(localSocketUser).(uuid.UUID)
	chatID, _ := conn.Locals(localChatID).(uuid.UUID)
	ws := realtime.NewWebSocketConn(conn)
	log := h.Logger.With().Str("chat_id", chatID.String()).Str("user_id", uid.String()).Logger()

	// conn goes back to the websocket pool when this returns; the watcher
	// below must be done with it before then
	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	syncer := chat.NewSynchronizer(chatID, h.Chats, h.Broker, &log)
	syncer.OnAppend(func(m models.Message) {
		if err := ws.Send("message", m); err != nil {
			log.Debug().Err(err).Msg("socket write failed")
		}
	})

	history, err := syncer.Start(ctx)
	if err != nil {
		log.Error().Err(err).Msg("chat sync start failed")
		_ = ws.Send("error", "Could not load chat")
		return
	}
	defer syncer.Close()

	if err := ws.Send("history", history); err != nil {
		return
	}
	log.Debug().Msg("chat socket connected")

	// a dead subscription closes the socket, which unblocks the read below
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-syncer.Done():
			_ = conn.Close()
		case <-ctx.Done():
		}
	}()

	for {
		var in clientFrame
		if err := conn.ReadJSON(&in); err != nil {
			log.Debug().Err(err).Msg("chat socket closed")
			return
		}

		switch in.Type {
		case "ping":
			_ = ws.Send("pong", nil)
		case "send":
			if _, err := h.Chats.SendMessage(ctx, chatID, uid, in.Message); err != nil {
				_ = ws.Send("error", h.socketError(err, &log))
			}
		}
	}
}

// socketError is the text an error frame carries; unexpected errors are
// logged and replaced with a generic message.
func (h *ChatHandler) socketError(err error, log *zerolog.Logger) string {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return "Message is required"
	case errors.Is(err, chat.ErrChatNotFound):
		return "Chat not found"
	case errors.Is(err, chat.ErrNotParticipant):
		return "Access denied"
	}
	log.Error().Err(err).Msg("socket send message")
	return "Failed to send message"
}

// UpgradeNotifications only needs a session; the topic is the caller's own.
func (h *ChatHandler) UpgradeNotifications(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	uid, ok := middleware.UserID(c)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	c.Locals(localSocketUser, uid)
	return c.Next()
}

// NotificationSocket forwards booking and chat notifications for the caller.
func (h *ChatHandler) NotificationSocket(conn *websocket.Conn) {
	uid, _ := conn.Locals(localSocketUser).(uuid.UUID)
	ws := realtime.NewWebSocketConn(conn)
	log := h.Logger.With().Str("user_id", uid.String()).Logger()

	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := h.Broker.Subscribe(ctx, realtime.UserTopic(uid))
	if err != nil {
		log.Error().Err(err).Msg("notification subscribe failed")
		return
	}
	defer sub.Close()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.Done():
				_ = conn.Close()
				return
			case err := <-sub.Err():
				log.Error().Err(err).Msg("notification subscription failed")
				_ = conn.Close()
				return
			case ev := <-sub.Events():
				if err := ws.Send(ev.Type, ev.Record); err != nil {
					return
				}
			}
		}
	}()

	for {
		var in clientFrame
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		if in.Type == "ping" {
			_ = ws.Send("pong", nil)
		}
	}
}
