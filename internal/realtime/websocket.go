// internal/realtime/websocket.go
package realtime

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// WebSocketConn wraps websocket.Conn so concurrent writers share one lock.
type WebSocketConn struct {
	Conn *websocket.Conn

	mu           sync.Mutex
	writeTimeout time.Duration
}

func NewWebSocketConn(c *websocket.Conn) *WebSocketConn {
	return &WebSocketConn{Conn: c, writeTimeout: 10 * time.Second}
}

// Frame is the envelope pushed to browser clients.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

func (w *WebSocketConn) WriteJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.writeTimeout > 0 {
		_ = w.Conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	}
	return w.Conn.WriteJSON(v)
}

func (w *WebSocketConn) Send(typ string, data any) error {
	return w.WriteJSON(Frame{Type: typ, Data: data})
}
