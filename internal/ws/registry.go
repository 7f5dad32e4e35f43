package ws

import (
	"log"
	"sync"

	"chat-delivery/internal/observability"
)

var sessionClosedNotice = []byte(`{"type":"SESSION_CLOSED","reason":"signed out"}`)

// Registry maps users to their live push channel on this instance. At most
// one channel per user: a fresh connection replaces the previous one, which
// is closed rather than leaked.
type Registry struct {
	mu      sync.RWMutex
	clients map[int64]*client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[int64]*client)}
}

// Register binds the connection to the user, closing any prior channel.
// The returned client is the only writer handle for the connection; the
// read loop replies through it so its writes share the registry's mutex.
func (r *Registry) Register(userID int64, conn PushConn, info ConnInfo) *client {
	c := newClient(conn, info)
	r.mu.Lock()
	old := r.clients[userID]
	r.clients[userID] = c
	r.mu.Unlock()

	if old != nil {
		log.Printf("ws: replacing connection for user %d", userID)
		old.close(sessionClosedNotice)
		observability.DecWSActive()
	}
	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	return c
}

// Unregister removes the user's channel, but only when it still belongs to
// the given connection. A replaced connection's deferred cleanup must not
// evict its successor.
func (r *Registry) Unregister(userID int64, conn PushConn) {
	r.mu.Lock()
	cur, ok := r.clients[userID]
	if ok && cur.conn == conn {
		delete(r.clients, userID)
	} else {
		ok = false
	}
	r.mu.Unlock()

	if ok {
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
	}
}

// IsConnected reports whether the user holds a live channel here.
func (r *Registry) IsConnected(userID int64) bool {
	r.mu.RLock()
	_, ok := r.clients[userID]
	r.mu.RUnlock()
	return ok
}

// SendTo pushes the payload to the user's channel. Absence is a normal
// outcome, not an error: the user is simply connected elsewhere, or not at
// all.
func (r *Registry) SendTo(userID int64, payload []byte) bool {
	r.mu.RLock()
	c := r.clients[userID]
	r.mu.RUnlock()
	if c == nil {
		return false
	}

	if err := c.write(payload); err != nil {
		log.Printf("ws: write to user %d failed: %v", userID, err)
		observability.IncWSEvent("ws_error")
		c.close(nil)
		r.Unregister(userID, c.conn)
		return false
	}
	return true
}

// CloseUser force-closes the user's channel, notifying the client first.
// Called when the user goes offline through another surface.
func (r *Registry) CloseUser(userID int64) {
	r.mu.Lock()
	c := r.clients[userID]
	delete(r.clients, userID)
	r.mu.Unlock()
	if c == nil {
		return
	}

	c.close(sessionClosedNotice)
	observability.DecWSActive()
	observability.IncWSEvent("ws_disconnect")
	log.Printf("ws: closed connection for user %d", userID)
}
