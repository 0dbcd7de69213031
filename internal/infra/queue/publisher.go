package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher publishes JSON events to a topic exchange. It is the transport
// behind the notification fan-out: consumers (the WebSocket gateway among
// them) bind their own queues to the exchange.
type Publisher struct {
	ch       *amqp.Channel
	exchange string
	log      *zap.Logger
}

// NewPublisher opens a channel on conn and declares the topic exchange.
func NewPublisher(conn *amqp.Connection, exchange string, log *zap.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return &Publisher{ch: ch, exchange: exchange, log: log}, nil
}

// PublishJSON marshals payload and publishes it under routingKey. The
// message is persistent; delivery beyond the broker is best-effort.
func (p *Publisher) PublishJSON(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

// Close releases the underlying channel.
func (p *Publisher) Close() error {
	return p.ch.Close()
}
