package messaging

import "context"

// TopicOrderPlaced carries OrderPlaced events once an order is persisted.
const TopicOrderPlaced = "orders.placed"

// Publisher defines an interface for publishing events to a message broker.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, key string, event any) error
}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) PublishEvent(context.Context, string, string, any) error { return nil }
