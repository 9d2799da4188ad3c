package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/egannguyen/tica-shop/internal/entity"
	"github.com/egannguyen/tica-shop/internal/messaging"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Publisher struct {
	pool      *ChannelPool
	queueName string
	timeout   time.Duration
}

// NewPublisher publishes every event to queueName through the default
// exchange, whatever topic it is published on. The topic travels in the
// message type header.
func NewPublisher(pool *ChannelPool, queueName string) *Publisher {
	return &Publisher{
		pool:      pool,
		queueName: queueName,
		timeout:   5 * time.Second,
	}
}

var _ messaging.Publisher = (*Publisher)(nil)

func (p *Publisher) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ch, err := p.pool.Get()
	if err != nil {
		return fmt.Errorf("failed to get channel from pool: %w", err)
	}
	defer p.pool.Put(ch)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := amqp.Publishing{
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		CorrelationId: key,
		Type:          topic,
		Timestamp:     time.Now(),
		Body:          body,
	}
	if et, ok := event.(entity.Event); ok {
		msg.Headers = amqp.Table{"event_type": et.EventType()}
	}

	err = ch.PublishWithContext(ctx,
		"",          // exchange
		p.queueName, // routing key (queue name)
		false,       // mandatory
		false,       // immediate
		msg,
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	slog.Debug("Published event to RabbitMQ", "queue", p.queueName, "topic", topic, "key", key)
	return nil
}
