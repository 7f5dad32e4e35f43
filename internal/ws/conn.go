package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// PushConn is the slice of *websocket.Conn the registry depends on. Tests
// substitute fakes; production always passes a gorilla connection.
type PushConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// client wraps one live push channel. The mutex serializes writes: two
// goroutines must never write the same socket concurrently.
type client struct {
	conn PushConn
	info ConnInfo
	mu   sync.Mutex
}

func newClient(conn PushConn, info ConnInfo) *client {
	return &client{conn: conn, info: info}
}

func (c *client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// close sends a best-effort closing notice and tears the channel down.
func (c *client) close(notice []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if notice != nil {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.conn.WriteMessage(websocket.TextMessage, notice)
	}
	_ = c.conn.Close()
}
