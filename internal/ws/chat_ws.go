package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"chat-delivery/internal/auth"
	"chat-delivery/internal/observability"
	"chat-delivery/internal/presence"
)

// ChatWebSocketHandler owns the push endpoint: it authenticates the
// handshake, registers the connection and keeps presence fresh for as long
// as the socket lives.
type ChatWebSocketHandler struct {
	registry  *Registry
	presence  *presence.Tracker
	validator auth.TokenValidator
}

// NewChatWebSocketHandler constructs a ChatWebSocketHandler.
func NewChatWebSocketHandler(registry *Registry, tracker *presence.Tracker, validator auth.TokenValidator) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{registry: registry, presence: tracker, validator: validator}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// controlFrame is what clients send over the socket. The channel carries no
// chat semantics beyond liveness and presence queries; messages travel over
// the HTTP API.
type controlFrame struct {
	Type    string  `json:"type"`
	UserIDs []int64 `json:"userIds,omitempty"`
}

// Handle upgrades the connection and registers the client. The token is
// validated exactly like a bearer token on the HTTP API; an invalid
// handshake never reaches the registry.
func (h *ChatWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("chat-delivery/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	userID, err := h.validator.ValidateToken(ctx, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      uuid.NewString(),
		UserID:      userID,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	cl := h.registry.Register(userID, conn, info)
	h.presence.SetOnline(userID)

	go h.readLoop(userID, conn, cl)
}

func (h *ChatWebSocketHandler) readLoop(userID int64, conn *websocket.Conn, cl *client) {
	defer func() {
		// Unregister promptly; presence converges via its own timeout so a
		// quick reconnect is not flapped to offline here.
		h.registry.Unregister(userID, conn)
		_ = conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
			}
			return
		}

		// Any traffic proves the user is alive.
		h.presence.SetOnline(userID)

		var frame controlFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			continue
		}
		// Replies go out on the connection the frame arrived on, not
		// through the registry: a just-replaced connection's last frame
		// must not answer to its successor.
		switch frame.Type {
		case "HEARTBEAT":
			_ = cl.write([]byte(`{"type":"PONG"}`))
		case "GET_USER_STATUS":
			h.sendStatusResponse(cl, frame.UserIDs)
		}
	}
}

func (h *ChatWebSocketHandler) sendStatusResponse(cl *client, userIDs []int64) {
	statuses := h.presence.BatchIsOnline(userIDs)
	resp, err := json.Marshal(map[string]any{
		"type":      "USER_STATUS_RESPONSE",
		"statusMap": statuses,
	})
	if err != nil {
		return
	}
	_ = cl.write(resp)
}

// bearerToken extracts the handshake credential from the Authorization
// header, falling back to a token query parameter for browser clients that
// cannot set websocket headers.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}
