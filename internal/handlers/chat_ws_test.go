package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	wsclient "github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Windi-Fikriyansyah/skilllink/internal/logging"
	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
	"github.com/Windi-Fikriyansyah/skilllink/internal/services/chat"
)

// listen serves app on a loopback port and returns its ws:// base URL.
func listen(t *testing.T, app *fiber.App) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.ShutdownWithTimeout(2 * time.Second) })
	return "ws://" + ln.Addr().String()
}

func dialSocket(t *testing.T, base, path string, session *http.Cookie) *wsclient.Conn {
	t.Helper()
	conn, resp, err := wsclient.DefaultDialer.Dial(base+path+"?token="+url.QueryEscape(session.Value), nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn
}

type socketFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func readFrame(t *testing.T, conn *wsclient.Conn) socketFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f socketFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func openChat(t *testing.T, e *testEnv, from signedUp, to signedUp) string {
	t.Helper()
	resp, env := e.do(t, http.MethodPost, "/api/chats", fiber.Map{"participant_id": to.ID}, from.Cookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	return dataID(t, env)
}

func TestChatSocketRoundTrip(t *testing.T) {
	e := newTestEnv(t, true)
	provider := e.signUp(t, "Budi", "budi@example.com", "provider")
	customer := e.signUp(t, "Dewi", "dewi@example.com", "user")
	chatID := openChat(t, e, customer, provider)
	base := listen(t, e.app)

	conn := dialSocket(t, base, "/ws/chats/"+chatID, provider.Cookie)
	defer conn.Close()
	assert.Equal(t, "history", readFrame(t, conn).Type)

	resp, env := e.do(t, http.MethodPost, "/api/chats/"+chatID+"/messages", fiber.Map{"message": "Is Saturday free?"}, customer.Cookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)

	f := readFrame(t, conn)
	require.Equal(t, "message", f.Type)
	var got models.Message
	require.NoError(t, json.Unmarshal(f.Data, &got))
	assert.Equal(t, "Is Saturday free?", got.Body)
	assert.Equal(t, customer.ID, got.SenderID.String())

	require.NoError(t, conn.WriteJSON(clientFrame{Type: "send", Message: "  "}))
	f = readFrame(t, conn)
	assert.Equal(t, "error", f.Type)
	assert.Equal(t, `"Message is required"`, string(f.Data))

	require.NoError(t, conn.WriteJSON(clientFrame{Type: "send", Message: "Yes, 10am"}))
	f = readFrame(t, conn)
	require.Equal(t, "message", f.Type)
	require.NoError(t, json.Unmarshal(f.Data, &got))
	assert.Equal(t, "Yes, 10am", got.Body)
	assert.Equal(t, provider.ID, got.SenderID.String(), "the sender sees its own message through the echo")

	require.NoError(t, conn.WriteJSON(clientFrame{Type: "ping"}))
	assert.Equal(t, "pong", readFrame(t, conn).Type)
}

func TestNotificationSocketForwardsChatMessages(t *testing.T) {
	e := newTestEnv(t, true)
	provider := e.signUp(t, "Budi", "budi@example.com", "provider")
	customer := e.signUp(t, "Dewi", "dewi@example.com", "user")
	chatID := openChat(t, e, customer, provider)
	base := listen(t, e.app)

	conn := dialSocket(t, base, "/ws/notifications", provider.Cookie)
	defer conn.Close()
	// the pong comes from the read loop, which starts after the subscription
	require.NoError(t, conn.WriteJSON(clientFrame{Type: "ping"}))
	require.Equal(t, "pong", readFrame(t, conn).Type)

	e.do(t, http.MethodPost, "/api/chats/"+chatID+"/messages", fiber.Map{"message": "hello"}, customer.Cookie)

	f := readFrame(t, conn)
	assert.Equal(t, "chat_message", f.Type)
	assert.Contains(t, string(f.Data), `"message":"hello"`)
}

func TestSocketsSurviveClientDisconnects(t *testing.T) {
	e := newTestEnv(t, true)
	provider := e.signUp(t, "Budi", "budi@example.com", "provider")
	customer := e.signUp(t, "Dewi", "dewi@example.com", "user")
	chatID := openChat(t, e, customer, provider)
	base := listen(t, e.app)

	for i := 0; i < 25; i++ {
		conn := dialSocket(t, base, "/ws/chats/"+chatID, customer.Cookie)
		assert.Equal(t, "history", readFrame(t, conn).Type)
		_ = conn.Close()

		conn = dialSocket(t, base, "/ws/notifications", customer.Cookie)
		require.NoError(t, conn.WriteJSON(clientFrame{Type: "ping"}))
		assert.Equal(t, "pong", readFrame(t, conn).Type)
		_ = conn.Close()
	}

	// the server is still healthy and every chat subscription was released
	resp, _ := e.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Eventually(t, func() bool {
		return e.hub.Subscribers("chat:"+chatID) == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestSocketErrorText(t *testing.T) {
	h := NewChatHandler(nil, nil, logging.Nop())
	log := logging.Nop()

	assert.Equal(t, "Message is required", h.socketError(chat.ErrEmptyMessage, log))
	assert.Equal(t, "Chat not found", h.socketError(chat.ErrChatNotFound, log))
	assert.Equal(t, "Failed to send message", h.socketError(errors.New("create message: UNIQUE constraint failed"), log))
}
