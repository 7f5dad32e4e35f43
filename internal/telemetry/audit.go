package telemetry

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"chat-delivery/internal/broker"
)

const auditTopic = "chat.audit"

// AuditEmitter publishes audit events through the delivery broker. All
// emission is best-effort; auditing never fails a request.
type AuditEmitter struct {
	broker      broker.Broker
	service     string
	environment string
}

// AuditEnvelope is the audit wire format.
type AuditEnvelope struct {
	SchemaVersion int    `json:"schema_version"`
	EventType     string `json:"event_type"`
	OccurredAt    string `json:"occurred_at"`
	Service       string `json:"service"`
	Environment   string `json:"environment"`
	UserID        int64  `json:"user_id,omitempty"`
	Payload       struct {
		Level string `json:"level"`
		Text  string `json:"text"`
	} `json:"payload"`
}

// NewAuditEmitter constructs an AuditEmitter.
func NewAuditEmitter(b broker.Broker, service, environment string) *AuditEmitter {
	return &AuditEmitter{broker: b, service: service, environment: environment}
}

// Emit publishes one audit event. Safe on a nil emitter.
func (e *AuditEmitter) Emit(ctx context.Context, level, text string, userID int64) {
	if e == nil || e.broker == nil {
		return
	}

	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		UserID:        userID,
	}
	envelope.Payload.Level = level
	envelope.Payload.Text = text

	body, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("audit marshal failed: %v", err)
		return
	}
	if err := e.broker.Publish(ctx, auditTopic, body); err != nil {
		log.Printf("audit publish failed: %v", err)
	}
}
