package telemetry

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-delivery/internal/mocks"
)

func TestEmitPublishesEnvelope(t *testing.T) {
	b := new(mocks.BrokerMock)
	var captured []byte
	b.On("Publish", mock.Anything, "chat.audit", mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).([]byte)
		}).Return(nil)

	e := NewAuditEmitter(b, "chat-delivery", "test")
	e.Emit(context.Background(), "info", "message sent", 42)

	b.AssertExpectations(t)

	var env AuditEnvelope
	require.NoError(t, json.Unmarshal(captured, &env))
	assert.Equal(t, 1, env.SchemaVersion)
	assert.Equal(t, "audit_log", env.EventType)
	assert.Equal(t, "chat-delivery", env.Service)
	assert.Equal(t, int64(42), env.UserID)
	assert.Equal(t, "info", env.Payload.Level)
	assert.Equal(t, "message sent", env.Payload.Text)
	assert.NotEmpty(t, env.OccurredAt)
}

func TestEmitOnNilEmitter(t *testing.T) {
	var e *AuditEmitter
	e.Emit(context.Background(), "info", "ignored", 1)
}

func TestEmitSwallowsPublishError(t *testing.T) {
	b := new(mocks.BrokerMock)
	b.On("Publish", mock.Anything, "chat.audit", mock.Anything).Return(assert.AnError)

	e := NewAuditEmitter(b, "chat-delivery", "test")
	e.Emit(context.Background(), "warn", "relay publish failed", 1)

	b.AssertExpectations(t)
}
