package relay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeenFirstAndSecondCall(t *testing.T) {
	s := newDedupSet(time.Minute)

	assert.False(t, s.Seen("id:1"))
	assert.True(t, s.Seen("id:1"))
	assert.False(t, s.Seen("id:2"))
}

func TestSeenExpiresAfterTTL(t *testing.T) {
	clock := time.Unix(1000, 0)
	s := newDedupSet(time.Minute)
	s.now = func() time.Time { return clock }

	assert.False(t, s.Seen("id:1"))

	clock = clock.Add(2 * time.Minute)
	assert.False(t, s.Seen("id:1"))
}

func TestSeenPrunesStaleEntries(t *testing.T) {
	clock := time.Unix(1000, 0)
	s := newDedupSet(time.Minute)
	s.now = func() time.Time { return clock }

	s.Seen("id:1")
	s.Seen("id:2")

	clock = clock.Add(2 * time.Minute)
	s.Seen("id:3")

	assert.Len(t, s.seen, 1)
}

func TestDeliveryKey(t *testing.T) {
	assert.Equal(t, "id:42", deliveryKey(42, []byte("ignored")))

	a := deliveryKey(0, []byte("payload-a"))
	b := deliveryKey(0, []byte("payload-b"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, deliveryKey(0, []byte("payload-a")))
}
