package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"chat-delivery/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

const messageColumns = `message_id, conversation_id, sender_id, receiver_id, content, message_type, is_read, create_time`

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	Save(ctx context.Context, msg *models.Message) error
	Get(ctx context.Context, messageID int64) (models.Message, error)
	ListByConversation(ctx context.Context, conversationID int64) ([]models.Message, error)
	ListBetween(ctx context.Context, userID, otherID int64, page, size int) ([]models.Message, error)
	MarkRead(ctx context.Context, messageID int64) (bool, error)
	MarkAllRead(ctx context.Context, conversationID, receiverID int64) (int64, error)
}

// MessageRepo is a sqlx-backed repository. Saves keep the owning
// conversation's preview in sync through the injected conversation store.
type MessageRepo struct {
	db            *sqlx.DB
	conversations ConversationRepository
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB, conversations ConversationRepository) *MessageRepo {
	return &MessageRepo{db: db, conversations: conversations}
}

// Save persists the message, defaulting create_time, is_read and
// message_type, and resolving the owning conversation when the caller did
// not supply one. The conversation preview is updated before Save returns
// so a conversation list read never lags behind an acknowledged send.
func (r *MessageRepo) Save(ctx context.Context, msg *models.Message) error {
	if msg.SenderID == 0 || msg.ReceiverID == 0 {
		return errors.New("message missing sender or receiver")
	}
	if msg.CreateTime.IsZero() {
		msg.CreateTime = time.Now()
	}
	if msg.MessageType == "" {
		msg.MessageType = models.MessageTypeText
	}

	if msg.ConversationID == 0 {
		conv, err := r.conversations.CreateOrGet(ctx, msg.SenderID, msg.ReceiverID)
		if err != nil {
			return err
		}
		msg.ConversationID = conv.ID
	}

	// One transaction: a persisted message must never be observable
	// without its conversation update.
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowxContext(ctx,
		`INSERT INTO messages (conversation_id, sender_id, receiver_id, content, message_type, is_read, create_time)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING `+messageColumns,
		msg.ConversationID, msg.SenderID, msg.ReceiverID, msg.Content, msg.MessageType, msg.IsRead, msg.CreateTime).
		StructScan(msg)
	if err != nil {
		return err
	}

	if err := updateLastMessage(ctx, tx, msg.ConversationID, msg.Content, msg.CreateTime, msg.ReceiverID); err != nil {
		return err
	}
	return tx.Commit()
}

// Get retrieves a single message.
func (r *MessageRepo) Get(ctx context.Context, messageID int64) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT `+messageColumns+` FROM messages WHERE message_id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// ListByConversation returns the conversation's messages newest first.
func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID int64) ([]models.Message, error) {
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages WHERE conversation_id=$1 ORDER BY create_time DESC, message_id DESC`,
		conversationID)
	return msgs, err
}

// ListBetween returns a page of messages exchanged by the pair, newest
// first. Pages are 1-based.
func (r *MessageRepo) ListBetween(ctx context.Context, userID, otherID int64, page, size int) ([]models.Message, error) {
	if page < 1 || size < 1 {
		return []models.Message{}, nil
	}
	offset := (page - 1) * size

	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages
         WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)
         ORDER BY create_time DESC, message_id DESC
         LIMIT $3 OFFSET $4`, userID, otherID, size, offset)
	return msgs, err
}

// MarkRead flips the read flag on one message.
func (r *MessageRepo) MarkRead(ctx context.Context, messageID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET is_read=TRUE WHERE message_id=$1`, messageID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkAllRead marks every unread message addressed to the receiver in the
// conversation and resets the receiver's unread counter when anything
// changed.
func (r *MessageRepo) MarkAllRead(ctx context.Context, conversationID, receiverID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_read=TRUE WHERE conversation_id=$1 AND receiver_id=$2 AND is_read=FALSE`,
		conversationID, receiverID)
	if err != nil {
		return 0, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if count > 0 {
		if _, err := r.conversations.MarkRead(ctx, conversationID, receiverID); err != nil {
			return count, err
		}
	}
	return count, nil
}
