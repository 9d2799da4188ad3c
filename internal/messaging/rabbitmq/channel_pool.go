package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrPoolExhausted is returned when every pooled channel is in use.
var ErrPoolExhausted = errors.New("no channels available in pool")

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// ChannelPool hands out pre-opened channels whose queue is already declared.
type ChannelPool struct {
	open      func() (Channel, error)
	closeConn func() error
	channels  chan Channel
	queueName string

	mu     sync.Mutex
	closed bool
	// missing counts slots whose channel was dropped and not yet reopened.
	missing int
}

// Dial connects to RabbitMQ and pre-creates size channels. The connection is
// re-dialed on demand when the broker drops it.
func Dial(url, queueName string, size int) (*ChannelPool, error) {
	conn := &connection{url: url}
	if _, err := conn.get(); err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return NewChannelPool(conn.channel, conn.close, queueName, size)
}

type connection struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection
}

func (c *connection) get() (*amqp.Connection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil && !c.conn.IsClosed() {
		return c.conn, nil
	}

	conn, err := amqp.Dial(c.url)
	if err != nil {
		return nil, err
	}
	if c.conn != nil {
		slog.Info("Reconnected to RabbitMQ")
	}
	c.conn = conn
	return conn, nil
}

func (c *connection) channel() (Channel, error) {
	conn, err := c.get()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (c *connection) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.conn.IsClosed() {
		return nil
	}
	return c.conn.Close()
}

// NewChannelPool fills a pool using open. closeConn, when set, runs after
// every channel is closed.
func NewChannelPool(open func() (Channel, error), closeConn func() error, queueName string, size int) (*ChannelPool, error) {
	pool := &ChannelPool{
		open:      open,
		closeConn: closeConn,
		channels:  make(chan Channel, size),
		queueName: queueName,
	}

	for i := 0; i < size; i++ {
		ch, err := pool.createChannel()
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create channel %d: %w", i, err)
		}
		pool.channels <- ch
	}

	slog.Info("Created RabbitMQ channel pool", "size", size, "queue", queueName)
	return pool, nil
}

func (p *ChannelPool) createChannel() (Channel, error) {
	ch, err := p.open()
	if err != nil {
		return nil, err
	}

	_, err = ch.QueueDeclare(
		p.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	return ch, nil
}

// Get takes a channel from the pool, replacing it if the broker closed it.
// A slot whose replacement failed is retried on a later Get.
func (p *ChannelPool) Get() (Channel, error) {
	select {
	case ch, ok := <-p.channels:
		if !ok {
			return nil, errors.New("channel pool is closed")
		}
		if ch.IsClosed() {
			return p.reopen()
		}
		return ch, nil
	default:
	}

	p.mu.Lock()
	if p.closed || p.missing == 0 {
		p.mu.Unlock()
		return nil, ErrPoolExhausted
	}
	p.missing--
	p.mu.Unlock()
	return p.reopen()
}

// reopen replaces the channel of a slot the caller holds, giving the slot
// back as missing if that fails.
func (p *ChannelPool) reopen() (Channel, error) {
	ch, err := p.createChannel()
	if err != nil {
		p.mu.Lock()
		p.missing++
		p.mu.Unlock()
		return nil, fmt.Errorf("failed to reopen channel: %w", err)
	}
	return ch, nil
}

// Put returns a channel to the pool.
func (p *ChannelPool) Put(ch Channel) {
	if ch == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if ch.IsClosed() {
		if !p.closed {
			p.missing++
		}
		return
	}
	if p.closed {
		ch.Close()
		return
	}
	select {
	case p.channels <- ch:
	default:
		ch.Close()
	}
}

// Close closes all pooled channels and the connection.
func (p *ChannelPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	close(p.channels)
	for ch := range p.channels {
		ch.Close()
	}
	if p.closeConn != nil {
		if err := p.closeConn(); err != nil {
			return fmt.Errorf("failed to close RabbitMQ connection: %w", err)
		}
	}
	slog.Info("Closed RabbitMQ channel pool")
	return nil
}
