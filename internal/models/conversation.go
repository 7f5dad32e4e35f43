package models

import "time"

// Conversation is the durable pairing of two users that anchors their
// message history. UserAID is always the numerically smaller id so that
// at most one row exists per unordered pair.
type Conversation struct {
	ID              int64      `db:"conversation_id" json:"conversation_id"`
	UserAID         int64      `db:"user_a_id" json:"user_a_id"`
	UserBID         int64      `db:"user_b_id" json:"user_b_id"`
	LastMessage     string     `db:"last_message" json:"last_message"`
	LastMessageTime *time.Time `db:"last_message_time" json:"last_message_time,omitempty"`
	UnreadA         int        `db:"unread_a" json:"-"`
	UnreadB         int        `db:"unread_b" json:"-"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// Counterpart returns the other participant's id.
func (c Conversation) Counterpart(userID int64) int64 {
	if c.UserAID == userID {
		return c.UserBID
	}
	return c.UserAID
}

// HasParticipant reports whether the user belongs to the conversation.
func (c Conversation) HasParticipant(userID int64) bool {
	return c.UserAID == userID || c.UserBID == userID
}

// UnreadFor returns the unread counter scoped to the given participant.
func (c Conversation) UnreadFor(userID int64) int {
	if c.UserAID == userID {
		return c.UnreadA
	}
	return c.UnreadB
}

// ConversationSummary is the API-facing view of a conversation for one
// user, joined with the counterpart's display profile.
type ConversationSummary struct {
	ConversationID  int64      `db:"conversation_id" json:"conversation_id"`
	TargetUserID    int64      `db:"target_user_id" json:"target_user_id"`
	TargetNickname  string     `db:"target_nickname" json:"target_nickname"`
	TargetAvatar    string     `db:"target_avatar" json:"target_avatar"`
	TargetOnline    bool       `json:"target_online"`
	LastMessage     string     `db:"last_message" json:"last_message"`
	LastMessageTime *time.Time `db:"last_message_time" json:"last_message_time,omitempty"`
	UnreadCount     int        `db:"unread_count" json:"unread_count"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}
