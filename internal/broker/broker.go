package broker

import (
	"context"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler consumes one delivery. Deliveries are at-least-once; consumers
// must tolerate duplicates.
type Handler func(topic string, body []byte)

// Broker is the narrow publish/subscribe contract the relay depends on.
// Topics are dot-separated routing keys; Subscribe takes a wildcard
// pattern such as "chat.user.*".
type Broker interface {
	Publish(ctx context.Context, topic string, body []byte) error
	Subscribe(ctx context.Context, pattern string, handler Handler) error
	Close() error
}

// New builds an AMQP broker, or a noop broker when AMQP is unconfigured
// or unreachable so the service still starts and degrades to
// history-fetch-only delivery.
func New(amqpURL, exchange string) Broker {
	if amqpURL == "" {
		log.Printf("broker disabled, using noop: empty amqp url")
		return noopBroker{reason: "empty amqp url"}
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		log.Printf("broker disabled, using noop: %v", err)
		return noopBroker{reason: err.Error()}
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("broker disabled, using noop: %v", err)
		_ = conn.Close()
		return noopBroker{reason: err.Error()}
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		log.Printf("broker disabled, using noop: %v", err)
		_ = ch.Close()
		_ = conn.Close()
		return noopBroker{reason: err.Error()}
	}

	log.Printf("broker connected exchange=%s", exchange)
	return &amqpBroker{conn: conn, ch: ch, exchange: exchange}
}

type amqpBroker struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func (b *amqpBroker) Publish(ctx context.Context, topic string, body []byte) error {
	return b.ch.PublishWithContext(ctx, b.exchange, topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

// Subscribe binds an exclusive, auto-delete queue to the pattern and feeds
// deliveries to the handler until the context ends. Each instance gets its
// own queue, so every instance sees every matching publish.
func (b *amqpBroker) Subscribe(ctx context.Context, pattern string, handler Handler) error {
	q, err := b.ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return err
	}
	if err := b.ch.QueueBind(q.Name, pattern, b.exchange, false, nil); err != nil {
		return err
	}

	deliveries, err := b.ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return err
	}
	log.Printf("broker subscribed queue=%s pattern=%s", q.Name, pattern)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					log.Printf("broker delivery channel closed")
					return
				}
				handler(d.RoutingKey, d.Body)
			}
		}
	}()
	return nil
}

func (b *amqpBroker) Close() error {
	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}

type noopBroker struct {
	reason string
}

func (noopBroker) Publish(ctx context.Context, topic string, body []byte) error {
	log.Printf("broker noop publish topic=%s bytes=%d", topic, len(body))
	return nil
}

func (noopBroker) Subscribe(ctx context.Context, pattern string, handler Handler) error {
	log.Printf("broker noop subscribe pattern=%s", pattern)
	return nil
}

func (noopBroker) Close() error {
	return nil
}

// Mode reports the broker mode for startup logging.
func Mode(b Broker) string {
	switch b.(type) {
	case *amqpBroker:
		return "amqp"
	case noopBroker:
		return "noop"
	default:
		return "unknown"
	}
}

// NoopReason explains why the broker fell back to noop, if it did.
func NoopReason(b Broker) string {
	if nb, ok := b.(noopBroker); ok {
		return nb.reason
	}
	return ""
}
