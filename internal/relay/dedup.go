package relay

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"
)

// dedupTTL bounds how long a delivery key is remembered. The broker only
// redelivers within a short window, so entries can age out quickly.
const dedupTTL = 2 * time.Minute

// dedupSet is a short-lived set of delivery keys used to drop broker
// redeliveries. Pruning happens inline on insert; there is no sweeper.
type dedupSet struct {
	mu        sync.Mutex
	seen      map[string]time.Time
	ttl       time.Duration
	lastPrune time.Time
	now       func() time.Time
}

func newDedupSet(ttl time.Duration) *dedupSet {
	return &dedupSet{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Seen records the key and reports whether it was already present and
// unexpired. The first caller for a key gets false; concurrent duplicates
// get true.
func (s *dedupSet) Seen(key string) bool {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastPrune) > s.ttl {
		for k, at := range s.seen {
			if now.Sub(at) > s.ttl {
				delete(s.seen, k)
			}
		}
		s.lastPrune = now
	}

	if at, ok := s.seen[key]; ok && now.Sub(at) <= s.ttl {
		return true
	}
	s.seen[key] = now
	return false
}

// deliveryKey identifies a delivery for deduplication: the message id when
// present, otherwise a hash of the raw body.
func deliveryKey(messageID int64, body []byte) string {
	if messageID != 0 {
		return fmt.Sprintf("id:%d", messageID)
	}
	h := fnv.New64a()
	_, _ = h.Write(body)
	return fmt.Sprintf("hash:%x", h.Sum64())
}
