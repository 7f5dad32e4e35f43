package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterpart(t *testing.T) {
	c := Conversation{UserAID: 3, UserBID: 9}
	assert.Equal(t, int64(9), c.Counterpart(3))
	assert.Equal(t, int64(3), c.Counterpart(9))
}

func TestHasParticipant(t *testing.T) {
	c := Conversation{UserAID: 3, UserBID: 9}
	assert.True(t, c.HasParticipant(3))
	assert.True(t, c.HasParticipant(9))
	assert.False(t, c.HasParticipant(4))
}

func TestUnreadFor(t *testing.T) {
	c := Conversation{UserAID: 3, UserBID: 9, UnreadA: 2, UnreadB: 7}
	assert.Equal(t, 2, c.UnreadFor(3))
	assert.Equal(t, 7, c.UnreadFor(9))
}

func TestUnreadCountersNotSerialized(t *testing.T) {
	c := Conversation{ID: 1, UserAID: 3, UserBID: 9, UnreadA: 2, UnreadB: 7}
	body, err := json.Marshal(c)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "unread_a")
	assert.NotContains(t, string(body), "unread_b")
}
