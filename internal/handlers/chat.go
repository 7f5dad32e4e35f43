package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chat-delivery/internal/directory"
	"chat-delivery/internal/models"
	"chat-delivery/internal/presence"
	"chat-delivery/internal/repositories"
	"chat-delivery/internal/telemetry"
)

// RelayPublisher is the relay slice the gateway needs: best-effort fan-out
// of an already-persisted message.
type RelayPublisher interface {
	Publish(ctx context.Context, msg models.Message) bool
}

// ChatHandler orchestrates the chat endpoints over the stores, the user
// directory, presence and the delivery relay.
type ChatHandler struct {
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	users         directory.UserDirectory
	presence      *presence.Tracker
	relay         RelayPublisher
	audit         *telemetry.AuditEmitter
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(
	conversations repositories.ConversationRepository,
	messages repositories.MessageRepository,
	users directory.UserDirectory,
	tracker *presence.Tracker,
	relay RelayPublisher,
	audit *telemetry.AuditEmitter,
) *ChatHandler {
	return &ChatHandler{
		conversations: conversations,
		messages:      messages,
		users:         users,
		presence:      tracker,
		relay:         relay,
		audit:         audit,
	}
}

// ListConversations returns the caller's conversations, newest activity
// first, with the counterpart's profile and online flag.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID := c.GetInt64("userID")

	summaries, err := h.conversations.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}

	if h.presence != nil {
		targetIDs := make([]int64, 0, len(summaries))
		for _, s := range summaries {
			targetIDs = append(targetIDs, s.TargetUserID)
		}
		online := h.presence.BatchIsOnline(targetIDs)
		for i := range summaries {
			summaries[i].TargetOnline = online[summaries[i].TargetUserID]
		}
	}

	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

// CreateOrGetConversation finds or creates the conversation with a target
// user.
func (h *ChatHandler) CreateOrGetConversation(c *gin.Context) {
	var req struct {
		TargetID int64 `json:"target_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt64("userID")
	if userID == req.TargetID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot chat with yourself"})
		return
	}

	exists, err := h.users.Exists(c.Request.Context(), req.TargetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to validate target user"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown target user"})
		return
	}

	conv, err := h.conversations.CreateOrGet(c.Request.Context(), userID, req.TargetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create conversation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation": conv, "unread_count": conv.UnreadFor(userID)})
}

// GetConversation fetches one conversation by id, participants only.
func (h *ChatHandler) GetConversation(c *gin.Context) {
	conversationID, ok := queryID(c, "conversationId")
	if !ok {
		return
	}

	userID := c.GetInt64("userID")
	conv, err := h.conversations.Get(c.Request.Context(), conversationID)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversation"})
		return
	}
	if !conv.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation": conv, "unread_count": conv.UnreadFor(userID)})
}

// MarkConversationRead resets the caller's unread counter. A non-participant
// gets ok:false rather than an error: it is a normal defensive check.
func (h *ChatHandler) MarkConversationRead(c *gin.Context) {
	var req struct {
		ConversationID int64 `json:"conversation_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt64("userID")
	ok, err := h.conversations.MarkRead(c.Request.Context(), req.ConversationID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark conversation read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": ok})
}

// DeleteConversation removes a conversation and its messages for good.
func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	conversationID, ok := queryID(c, "conversationId")
	if !ok {
		return
	}

	userID := c.GetInt64("userID")
	deleted, err := h.conversations.Delete(c.Request.Context(), conversationID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete conversation"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetMessages returns a conversation's history, newest first.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	conversationID, err := strconv.ParseInt(c.Param("conversation_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	userID := c.GetInt64("userID")
	conv, err := h.conversations.Get(c.Request.Context(), conversationID)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversation"})
		return
	}
	if !conv.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
		return
	}

	msgs, err := h.messages.ListByConversation(c.Request.Context(), conversationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// GetMessagesBetween returns a page of history between the caller and
// another user.
func (h *ChatHandler) GetMessagesBetween(c *gin.Context) {
	otherID, ok := queryID(c, "userId")
	if !ok {
		return
	}
	page := intQuery(c, "page", 1)
	size := intQuery(c, "size", 20)

	userID := c.GetInt64("userID")
	msgs, err := h.messages.ListBetween(c.Request.Context(), userID, otherID, page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs, "page": page, "size": size})
}

// SendMessage is the critical path: validate, persist (which resolves the
// conversation and updates its preview), then fan out best-effort.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req struct {
		ReceiverID  int64  `json:"receiver_id" binding:"required"`
		Content     string `json:"content" binding:"required"`
		MessageType string `json:"message_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt64("userID")
	if userID == req.ReceiverID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot message yourself"})
		return
	}

	exists, err := h.users.Exists(c.Request.Context(), req.ReceiverID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to validate recipient"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown recipient"})
		return
	}

	conv, err := h.conversations.CreateOrGet(c.Request.Context(), userID, req.ReceiverID)
	if err != nil {
		// One retry covers a transient store hiccup on first contact.
		log.Printf("find-or-create conversation failed, retrying once: %v", err)
		conv, err = h.conversations.CreateOrGet(c.Request.Context(), userID, req.ReceiverID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve conversation"})
		return
	}

	msg := models.Message{
		ConversationID: conv.ID,
		SenderID:       userID,
		ReceiverID:     req.ReceiverID,
		Content:        req.Content,
		MessageType:    req.MessageType,
	}
	if err := h.messages.Save(c.Request.Context(), &msg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	// Message is durable from here on; a failed publish only delays
	// delivery until the recipient's next history fetch.
	if h.relay != nil && !h.relay.Publish(c.Request.Context(), msg) {
		log.Printf("relay publish failed for message %d", msg.ID)
		h.audit.Emit(c.Request.Context(), "warn", "relay publish failed", userID)
	}
	h.audit.Emit(c.Request.Context(), "info", "message sent", userID)

	c.JSON(http.StatusCreated, msg)
}

// MarkMessageRead flips one message's read flag. Only the receiver may do
// it; anyone else gets ok:false.
func (h *ChatHandler) MarkMessageRead(c *gin.Context) {
	var req struct {
		MessageID int64 `json:"message_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt64("userID")
	msg, err := h.messages.Get(c.Request.Context(), req.MessageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load message"})
		return
	}
	if msg.ReceiverID != userID {
		c.JSON(http.StatusOK, gin.H{"ok": false})
		return
	}

	ok, err := h.messages.MarkRead(c.Request.Context(), req.MessageID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark message read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": ok})
}

// MarkAllMessagesRead marks every unread message addressed to the caller
// in the conversation and returns how many changed.
func (h *ChatHandler) MarkAllMessagesRead(c *gin.Context) {
	var req struct {
		ConversationID int64 `json:"conversation_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt64("userID")
	count, err := h.messages.MarkAllRead(c.Request.Context(), req.ConversationID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark messages read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

func queryID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	val, err := strconv.Atoi(c.Query(name))
	if err != nil || val < 1 {
		return fallback
	}
	return val
}
