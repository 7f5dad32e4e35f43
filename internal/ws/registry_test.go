package ws

import (
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeConn struct {
	mu       sync.Mutex
	frames   []string
	closed   bool
	failNext bool
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		return errWrite
	}
	f.frames = append(f.frames, string(data))
	return nil
}

func (f *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) lastFrame() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return ""
	}
	return f.frames[len(f.frames)-1]
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

var errWrite = &writeError{}

type writeError struct{}

func (*writeError) Error() string { return "write failed" }

func TestRegisterAndSendTo(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{}
	r.Register(7, conn, ConnInfo{UserID: 7})

	if !r.IsConnected(7) {
		t.Fatalf("expected user 7 to be connected")
	}
	if !r.SendTo(7, []byte(`{"type":"message"}`)) {
		t.Fatalf("expected send to succeed")
	}
	if got := conn.lastFrame(); got != `{"type":"message"}` {
		t.Fatalf("unexpected frame: %s", got)
	}
}

func TestSendToAbsentUser(t *testing.T) {
	r := NewRegistry()
	if r.SendTo(99, []byte("x")) {
		t.Fatalf("expected send to an absent user to report false")
	}
}

func TestRegisterReplacesPriorChannel(t *testing.T) {
	r := NewRegistry()
	old := &fakeConn{}
	r.Register(7, old, ConnInfo{UserID: 7})

	replacement := &fakeConn{}
	r.Register(7, replacement, ConnInfo{UserID: 7})

	if !old.isClosed() {
		t.Fatalf("expected replaced channel to be closed")
	}
	if !strings.Contains(old.lastFrame(), "SESSION_CLOSED") {
		t.Fatalf("expected closing notice on old channel, got %q", old.lastFrame())
	}
	if !r.SendTo(7, []byte("hello")) {
		t.Fatalf("expected send via replacement channel")
	}
	if replacement.lastFrame() != "hello" {
		t.Fatalf("payload went to the wrong channel")
	}
}

func TestUnregisterIsConnMatched(t *testing.T) {
	r := NewRegistry()
	old := &fakeConn{}
	r.Register(7, old, ConnInfo{UserID: 7})
	replacement := &fakeConn{}
	r.Register(7, replacement, ConnInfo{UserID: 7})

	// The replaced connection's deferred cleanup must not evict the
	// successor.
	r.Unregister(7, old)
	if !r.IsConnected(7) {
		t.Fatalf("stale unregister evicted the live channel")
	}

	r.Unregister(7, replacement)
	if r.IsConnected(7) {
		t.Fatalf("expected user to be disconnected")
	}
}

func TestSendToWriteFailureEvictsChannel(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{failNext: true}
	r.Register(7, conn, ConnInfo{UserID: 7})

	if r.SendTo(7, []byte("x")) {
		t.Fatalf("expected send to fail")
	}
	if r.IsConnected(7) {
		t.Fatalf("expected failed channel to be evicted")
	}
	if !conn.isClosed() {
		t.Fatalf("expected failed channel to be closed")
	}
}

func TestCloseUser(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{}
	r.Register(7, conn, ConnInfo{UserID: 7})

	r.CloseUser(7)
	if r.IsConnected(7) {
		t.Fatalf("expected user to be disconnected")
	}
	if !conn.isClosed() {
		t.Fatalf("expected channel to be closed")
	}
	if !strings.Contains(conn.lastFrame(), "SESSION_CLOSED") {
		t.Fatalf("expected closing notice, got %q", conn.lastFrame())
	}

	// Closing again is a harmless no-op.
	r.CloseUser(7)
}
