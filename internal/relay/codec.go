package relay

import (
	"encoding/json"
	"errors"

	"chat-delivery/internal/models"
)

var errUndecodable = errors.New("relay: undecodable payload")

// taggedEnvelope is the wrapped wire shape: a type tag around the message.
// The relay and the persistence layer evolve independently, so the
// subscriber tolerates both this and the plain shape.
type taggedEnvelope struct {
	Type    string          `json:"type"`
	Message *models.Message `json:"message"`
}

// decodeMessage decodes a relayed payload, trying the plain message shape
// first and falling back to the type-tagged envelope. A decode only counts
// when it yields a receiver, since fan-out is keyed on it.
func decodeMessage(body []byte) (models.Message, error) {
	var msg models.Message
	if err := json.Unmarshal(body, &msg); err == nil && msg.ReceiverID != 0 {
		return msg, nil
	}

	var env taggedEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Message != nil && env.Message.ReceiverID != 0 {
		return *env.Message, nil
	}

	return models.Message{}, errUndecodable
}
