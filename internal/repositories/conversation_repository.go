package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"chat-delivery/internal/models"
)

var ErrConversationNotFound = errors.New("conversation not found")

const conversationColumns = `conversation_id, user_a_id, user_b_id, last_message, last_message_time, unread_a, unread_b, created_at`

// ConversationRepository abstracts conversation persistence.
type ConversationRepository interface {
	FindByUsers(ctx context.Context, userID, otherID int64) (models.Conversation, error)
	CreateOrGet(ctx context.Context, userID, otherID int64) (models.Conversation, error)
	Get(ctx context.Context, conversationID int64) (models.Conversation, error)
	UpdateLastMessage(ctx context.Context, conversationID int64, preview string, at time.Time, recipientID int64) error
	MarkRead(ctx context.Context, conversationID, readerID int64) (bool, error)
	ListForUser(ctx context.Context, userID int64) ([]models.ConversationSummary, error)
	Delete(ctx context.Context, conversationID, userID int64) (bool, error)
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// CanonicalPair orders two user ids with the smaller first. Every row is
// stored in this order, so a pair has exactly one possible key.
func CanonicalPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// FindByUsers looks up the conversation for an unordered user pair.
func (r *ConversationRepo) FindByUsers(ctx context.Context, userID, otherID int64) (models.Conversation, error) {
	userA, userB := CanonicalPair(userID, otherID)
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT `+conversationColumns+` FROM conversations WHERE user_a_id=$1 AND user_b_id=$2`, userA, userB)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// CreateOrGet returns the conversation for the pair, creating it if absent.
// The unique constraint on (user_a_id, user_b_id) makes this race-free:
// of two concurrent creators one insert wins and the loser re-selects the
// winner's row.
func (r *ConversationRepo) CreateOrGet(ctx context.Context, userID, otherID int64) (models.Conversation, error) {
	if userID == otherID {
		return models.Conversation{}, errors.New("cannot create conversation with self")
	}
	userA, userB := CanonicalPair(userID, otherID)

	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv,
		`INSERT INTO conversations (user_a_id, user_b_id) VALUES ($1, $2)
         ON CONFLICT (user_a_id, user_b_id) DO NOTHING
         RETURNING `+conversationColumns, userA, userB)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, err
	}
	// Insert lost the race; the row exists now.
	return r.FindByUsers(ctx, userA, userB)
}

// Get fetches a conversation by id.
func (r *ConversationRepo) Get(ctx context.Context, conversationID int64) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT `+conversationColumns+` FROM conversations WHERE conversation_id=$1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// UpdateLastMessage refreshes the denormalized preview and bumps the
// recipient's unread counter in a single statement.
func (r *ConversationRepo) UpdateLastMessage(ctx context.Context, conversationID int64, preview string, at time.Time, recipientID int64) error {
	return updateLastMessage(ctx, r.db, conversationID, preview, at, recipientID)
}

// updateLastMessage runs against either the pool or an open transaction,
// so the message store can fold it into the same transaction as its
// insert.
func updateLastMessage(ctx context.Context, ext sqlx.ExtContext, conversationID int64, preview string, at time.Time, recipientID int64) error {
	res, err := ext.ExecContext(ctx,
		`UPDATE conversations SET
            last_message=$2,
            last_message_time=$3,
            unread_a = unread_a + CASE WHEN user_a_id=$4 THEN 1 ELSE 0 END,
            unread_b = unread_b + CASE WHEN user_b_id=$4 THEN 1 ELSE 0 END
         WHERE conversation_id=$1`, conversationID, preview, at, recipientID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// MarkRead zeroes the reader's unread counter. Returns false without error
// when the reader is not a participant; the check and the reset are one
// statement so a racing send cannot be lost between them.
func (r *ConversationRepo) MarkRead(ctx context.Context, conversationID, readerID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET
            unread_a = CASE WHEN user_a_id=$2 THEN 0 ELSE unread_a END,
            unread_b = CASE WHEN user_b_id=$2 THEN 0 ELSE unread_b END
         WHERE conversation_id=$1 AND (user_a_id=$2 OR user_b_id=$2)`, conversationID, readerID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListForUser returns the user's conversations newest-activity first,
// joined with the counterpart's display profile and projecting the
// caller's unread counter.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID int64) ([]models.ConversationSummary, error) {
	query := `SELECT c.conversation_id,
            CASE WHEN c.user_a_id=$1 THEN c.user_b_id ELSE c.user_a_id END AS target_user_id,
            COALESCE(p.nickname, '') AS target_nickname,
            COALESCE(p.avatar, '') AS target_avatar,
            c.last_message, c.last_message_time,
            CASE WHEN c.user_a_id=$1 THEN c.unread_a ELSE c.unread_b END AS unread_count,
            c.created_at
        FROM conversations c
        LEFT JOIN user_profiles p ON p.user_id = CASE WHEN c.user_a_id=$1 THEN c.user_b_id ELSE c.user_a_id END
        WHERE c.user_a_id=$1 OR c.user_b_id=$1
        ORDER BY c.last_message_time DESC NULLS LAST, c.created_at DESC`

	summaries := []models.ConversationSummary{}
	if err := r.db.SelectContext(ctx, &summaries, query, userID); err != nil {
		return nil, err
	}
	for i := range summaries {
		if summaries[i].TargetNickname == "" {
			summaries[i].TargetNickname = defaultNickname(summaries[i].TargetUserID)
		}
	}
	return summaries, nil
}

func defaultNickname(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

// Delete removes a conversation and its messages. Participant only; the
// explicit user action is the one case where chat data is hard-deleted.
func (r *ConversationRepo) Delete(ctx context.Context, conversationID, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE conversation_id=$1 AND (user_a_id=$2 OR user_b_id=$2)`, conversationID, userID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
