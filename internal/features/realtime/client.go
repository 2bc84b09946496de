package realtime

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// frame is the JSON envelope every server-to-client message uses.
type frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// wsClient serializes writes to one websocket connection; the underlying
// conn does not tolerate concurrent writers.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newWSClient(conn *websocket.Conn) *wsClient {
	return &wsClient{conn: conn}
}

func (c *wsClient) Send(event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(frame{Event: event, Data: payload})
}

func (c *wsClient) Close() {
	c.conn.Close()
}
