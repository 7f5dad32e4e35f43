package presence

import (
	"testing"
	"time"
)

type recordingCloser struct {
	closed []int64
}

func (c *recordingCloser) CloseUser(userID int64) {
	c.closed = append(c.closed, userID)
}

func trackerAt(start time.Time) (*Tracker, *time.Time) {
	clock := start
	tr := NewTracker(nil)
	tr.now = func() time.Time { return clock }
	return tr, &clock
}

func TestOnlineWithinTimeout(t *testing.T) {
	tr, clock := trackerAt(time.Unix(1000, 0))

	tr.SetOnline(7)
	if !tr.IsOnline(7) {
		t.Fatalf("expected user to be online right after SetOnline")
	}

	*clock = clock.Add(Timeout)
	if !tr.IsOnline(7) {
		t.Fatalf("expected user to still be online at the timeout boundary")
	}
}

func TestStaleEntryExpiresLazily(t *testing.T) {
	tr, clock := trackerAt(time.Unix(1000, 0))

	tr.SetOnline(7)
	*clock = clock.Add(Timeout + time.Second)

	if tr.IsOnline(7) {
		t.Fatalf("expected stale entry to read as offline")
	}
	if _, ok := tr.entries[7]; ok {
		t.Fatalf("expected stale entry to be purged on read")
	}
}

func TestRefreshExtendsPresence(t *testing.T) {
	tr, clock := trackerAt(time.Unix(1000, 0))

	tr.SetOnline(7)
	*clock = clock.Add(20 * time.Second)
	tr.SetOnline(7)
	*clock = clock.Add(20 * time.Second)

	if !tr.IsOnline(7) {
		t.Fatalf("expected refreshed user to remain online")
	}
}

func TestSetOfflineClosesChannel(t *testing.T) {
	closer := &recordingCloser{}
	tr := NewTracker(closer)

	tr.SetOnline(7)
	tr.SetOffline(7)

	if tr.IsOnline(7) {
		t.Fatalf("expected user to be offline")
	}
	if len(closer.closed) != 1 || closer.closed[0] != 7 {
		t.Fatalf("expected channel closure for user 7, got %v", closer.closed)
	}
}

func TestUnknownUserIsOffline(t *testing.T) {
	tr := NewTracker(nil)
	if tr.IsOnline(42) {
		t.Fatalf("expected unknown user to be offline")
	}
}

func TestZeroUserIDIgnored(t *testing.T) {
	tr := NewTracker(nil)
	tr.SetOnline(0)
	if len(tr.entries) != 0 {
		t.Fatalf("expected zero user id to be ignored")
	}
}

func TestBatchIsOnline(t *testing.T) {
	tr, clock := trackerAt(time.Unix(1000, 0))

	tr.SetOnline(1)
	tr.SetOnline(2)
	*clock = clock.Add(Timeout + time.Second)
	tr.SetOnline(3)

	got := tr.BatchIsOnline([]int64{1, 2, 3, 4, 0})
	want := map[int64]bool{1: false, 2: false, 3: true, 4: false}
	if len(got) != len(want) {
		t.Fatalf("unexpected result size: %v", got)
	}
	for id, online := range want {
		if got[id] != online {
			t.Fatalf("user %d: got %v, want %v", id, got[id], online)
		}
	}
}
