package presence

import (
	"log"
	"sync"
	"time"
)

// Timeout is how long a user stays online without a refresh. Covers
// abrupt network loss where no disconnect ever arrives.
const Timeout = 30 * time.Second

// ChannelCloser force-closes a user's live push channel. Satisfied by the
// connection registry; going offline is authoritative, so the channel must
// not outlive the status.
type ChannelCloser interface {
	CloseUser(userID int64)
}

type entry struct {
	online     bool
	lastActive time.Time
}

// Tracker keeps instance-local online state per user. State is transient:
// lost on restart, re-established on the next connect.
type Tracker struct {
	mu      sync.RWMutex
	entries map[int64]entry
	closer  ChannelCloser
	now     func() time.Time
}

// NewTracker constructs a Tracker. closer may be nil in tests that do not
// exercise forced closure.
func NewTracker(closer ChannelCloser) *Tracker {
	return &Tracker{
		entries: make(map[int64]entry),
		closer:  closer,
		now:     time.Now,
	}
}

// SetOnline marks the user online and refreshes their activity time.
func (t *Tracker) SetOnline(userID int64) {
	if userID == 0 {
		return
	}
	t.mu.Lock()
	t.entries[userID] = entry{online: true, lastActive: t.now()}
	t.mu.Unlock()
}

// SetOffline marks the user offline and closes any live channel they hold
// on this instance.
func (t *Tracker) SetOffline(userID int64) {
	if userID == 0 {
		return
	}
	t.mu.Lock()
	delete(t.entries, userID)
	t.mu.Unlock()

	if t.closer != nil {
		t.closer.CloseUser(userID)
	}
}

// IsOnline reports whether the user is online. Stale entries are expired
// here, lazily, instead of by a background sweep.
func (t *Tracker) IsOnline(userID int64) bool {
	t.mu.RLock()
	e, ok := t.entries[userID]
	t.mu.RUnlock()
	if !ok || !e.online {
		return false
	}

	if t.now().Sub(e.lastActive) <= Timeout {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Re-check under the write lock; a refresh may have raced in.
	cur, ok := t.entries[userID]
	if !ok {
		return false
	}
	if t.now().Sub(cur.lastActive) > Timeout {
		log.Printf("presence: user %d timed out, marking offline", userID)
		delete(t.entries, userID)
		return false
	}
	return true
}

// BatchIsOnline resolves online state for several users at once.
func (t *Tracker) BatchIsOnline(userIDs []int64) map[int64]bool {
	result := make(map[int64]bool, len(userIDs))
	for _, id := range userIDs {
		if id != 0 {
			result[id] = t.IsOnline(id)
		}
	}
	return result
}
