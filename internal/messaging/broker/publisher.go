package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/egannguyen/tica-shop/internal/entity"
	"github.com/egannguyen/tica-shop/internal/messaging"
	"github.com/egannguyen/tica-shop/internal/messaging/kafka"
	"github.com/google/uuid"
)

// EventTypeMetadata names the event carried in the payload.
const EventTypeMetadata = "event_type"

type watermillPublisher struct {
	pub message.Publisher
}

// NewPublisher adapts a watermill publisher to messaging.Publisher. Events
// are encoded as JSON with a fresh uuid as the message id.
func NewPublisher(pub message.Publisher) messaging.Publisher {
	return &watermillPublisher{pub: pub}
}

func (p *watermillPublisher) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	msg.Metadata.Set(kafka.PartitionKeyMetadata, key)
	if et, ok := event.(entity.Event); ok {
		msg.Metadata.Set(EventTypeMetadata, et.EventType())
	}
	msg.SetContext(ctx)

	if err := p.pub.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}
