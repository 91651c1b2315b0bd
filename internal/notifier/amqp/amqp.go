// Package amqp publishes trade records to a RabbitMQ queue
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/quantumtrade/tradebot/internal/core"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	dialAttempts   = 5
	dialBackoff    = 2 * time.Second
	publishTimeout = 5 * time.Second
)

// Channel is the subset of *amqp091.Channel the publisher uses
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Publisher sends trade records as persistent JSON messages
type Publisher struct {
	conn  io.Closer
	ch    Channel
	queue string
}

// Dial connects to RabbitMQ, retrying a few times, and declares the queue.
func Dial(ctx context.Context, url, queue string, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var conn *amqp091.Connection
	var err error
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		conn, err = amqp091.Dial(url)
		if err == nil {
			break
		}
		logger.Warn("amqp connection attempt failed",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt == dialAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialBackoff):
		}
	}
	if err != nil {
		return nil, core.WrapError(core.ErrNotifierFailed, fmt.Errorf("connecting to rabbitmq after %d attempts: %w", dialAttempts, err))
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, core.WrapError(core.ErrNotifierFailed, fmt.Errorf("opening channel: %w", err))
	}

	p, err := NewWithChannel(ch, queue)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewWithChannel builds a publisher on an open channel and declares the
// durable queue.
func NewWithChannel(ch Channel, queue string) (*Publisher, error) {
	if queue == "" {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("amqp: queue is required"))
	}
	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, core.WrapError(core.ErrNotifierFailed, fmt.Errorf("declaring queue %q: %w", queue, err))
	}
	return &Publisher{ch: ch, queue: queue}, nil
}

func (p *Publisher) Name() string { return "amqp" }

// Send publishes the trade to the default exchange routed by queue name.
func (p *Publisher) Send(ctx context.Context, trade core.Trade) error {
	body, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("amqp: failed to marshal trade: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    trade.ID,
		Timestamp:    trade.Time,
		Type:         string(trade.Signal),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("amqp: publishing to %s: %w", p.queue, err)
	}
	return nil
}

// Close closes the channel and connection
func (p *Publisher) Close() error {
	var err error
	if p.ch != nil {
		err = p.ch.Close()
	}
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
