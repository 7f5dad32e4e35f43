package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"chat-delivery/internal/broker"
	"chat-delivery/internal/models"
	"chat-delivery/internal/observability"
)

const (
	topicPrefix  = "chat.user."
	topicPattern = topicPrefix + "*"

	publishTimeout = 5 * time.Second
)

// Registry is the local connection registry slice the relay forwards to.
type Registry interface {
	SendTo(userID int64, payload []byte) bool
}

// Relay bridges persisted messages to push delivery across instances. Each
// message is published on the recipient's topic; every instance subscribes
// to the wildcard and the one holding the recipient's connection pushes.
type Relay struct {
	broker   broker.Broker
	registry Registry
	seen     *dedupSet
}

// New constructs a Relay.
func New(b broker.Broker, registry Registry) *Relay {
	return &Relay{
		broker:   b,
		registry: registry,
		seen:     newDedupSet(dedupTTL),
	}
}

// TopicForUser names the per-user delivery topic.
func TopicForUser(userID int64) string {
	return fmt.Sprintf("%s%d", topicPrefix, userID)
}

// Publish fans the message out toward the recipient. Returns false on
// serialization or broker failure instead of an error: the message is
// already durably persisted, so a failed publish only delays delivery
// until the next history fetch.
func (r *Relay) Publish(ctx context.Context, msg models.Message) bool {
	if msg.ReceiverID == 0 {
		log.Printf("relay: refusing publish without receiver, message %d", msg.ID)
		return false
	}

	body, err := json.Marshal(msg)
	if err != nil {
		log.Printf("relay: marshal message %d failed: %v", msg.ID, err)
		observability.IncRelayPublishError()
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := r.broker.Publish(ctx, TopicForUser(msg.ReceiverID), body); err != nil {
		log.Printf("relay: publish message %d failed: %v", msg.ID, err)
		observability.IncRelayPublishError()
		return false
	}

	observability.IncRelayPublished()
	return true
}

// Run subscribes to the wildcard pattern covering all per-user topics.
// Called once per instance at startup.
func (r *Relay) Run(ctx context.Context) error {
	return r.broker.Subscribe(ctx, topicPattern, r.handleDelivery)
}

// handleDelivery processes one broker delivery: dedup, tolerant decode,
// then a local push. A recipient connected elsewhere is dropped silently.
func (r *Relay) handleDelivery(topic string, body []byte) {
	msg, err := decodeMessage(body)
	if err != nil {
		log.Printf("relay: dropping undecodable delivery on %s: %v", topic, err)
		observability.IncRelayDecodeError()
		return
	}

	if r.seen.Seen(deliveryKey(msg.ID, body)) {
		observability.IncRelayDuplicate()
		return
	}

	payload, err := json.Marshal(models.ChatEvent{Type: "message", Message: &msg})
	if err != nil {
		log.Printf("relay: marshal event for message %d failed: %v", msg.ID, err)
		return
	}

	if r.registry.SendTo(msg.ReceiverID, payload) {
		observability.IncRelayDelivered()
	}
}
