package models

import "time"

// Message types. The column is free-form text so new kinds can be added
// without a migration.
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
)

// Message represents a single chat message. Immutable once created except
// for the IsRead flag.
type Message struct {
	ID             int64     `db:"message_id" json:"message_id"`
	ConversationID int64     `db:"conversation_id" json:"conversation_id"`
	SenderID       int64     `db:"sender_id" json:"sender_id"`
	ReceiverID     int64     `db:"receiver_id" json:"receiver_id"`
	Content        string    `db:"content" json:"content"`
	MessageType    string    `db:"message_type" json:"message_type"`
	IsRead         bool      `db:"is_read" json:"is_read"`
	CreateTime     time.Time `db:"create_time" json:"create_time"`
}

// ChatEvent is the frame pushed over a live websocket connection.
type ChatEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
}
