package ws

import "time"

// ConnInfo describes one registered push connection.
type ConnInfo struct {
	ConnID      string
	UserID      int64
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
