package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/egannguyen/tica-shop/internal/messaging"
	"github.com/egannguyen/tica-shop/internal/messaging/kafka"
)

const auditGroup = "tica-shop-audit"

// Broker bundles a watermill publisher, the subscriber feeding the audit
// consumer and the router running it.
type Broker struct {
	Publisher messaging.Publisher

	pub      message.Publisher
	sub      message.Subscriber
	closeSub bool
	router   *message.Router
}

// NewInMemory builds a broker on an in-process GoChannel pub/sub.
func NewInMemory(logger *slog.Logger) (*Broker, error) {
	wlog := watermill.NewSlogLogger(logger)
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, wlog)
	return newBroker(ch, nil, wlog)
}

// NewKafka builds a broker publishing to and consuming from Kafka.
func NewKafka(brokers []string, logger *slog.Logger) (*Broker, error) {
	wlog := watermill.NewSlogLogger(logger)

	pub, err := kafka.NewPublisher(brokers, wlog)
	if err != nil {
		return nil, err
	}
	sub, err := kafka.NewSubscriber(brokers, auditGroup, wlog)
	if err != nil {
		pub.Close()
		return nil, err
	}
	return newBroker(pub, sub, wlog)
}

// newBroker wires the audit consumer. A nil sub means pub also implements
// message.Subscriber and is closed once.
func newBroker(pub message.Publisher, sub message.Subscriber, logger watermill.LoggerAdapter) (*Broker, error) {
	closeSub := sub != nil
	if sub == nil {
		s, ok := pub.(message.Subscriber)
		if !ok {
			return nil, errors.New("publisher cannot subscribe")
		}
		sub = s
	}

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			Logger:          logger,
		}.Middleware,
	)

	router.AddNoPublisherHandler("order_placed_audit", messaging.TopicOrderPlaced, sub, AuditOrderPlaced)

	return &Broker{
		Publisher: NewPublisher(pub),
		pub:       pub,
		sub:       sub,
		closeSub:  closeSub,
		router:    router,
	}, nil
}

// Run starts the router and blocks until ctx is cancelled or the router stops.
func (b *Broker) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running is closed once every router handler is subscribed.
func (b *Broker) Running() chan struct{} {
	return b.router.Running()
}

// Close stops the router and releases the publisher and subscriber.
func (b *Broker) Close() error {
	var errs []error
	// A router that never ran would wait out CloseTimeout for handlers that never started.
	if b.router.IsRunning() {
		if err := b.router.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close router: %w", err))
		}
	}
	if err := b.pub.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close publisher: %w", err))
	}
	if b.closeSub {
		if err := b.sub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close subscriber: %w", err))
		}
	}
	return errors.Join(errs...)
}
