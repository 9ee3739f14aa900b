// Package amqp forwards ledger events to a RabbitMQ topic exchange so other
// services can react to committed mutations.
package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/MrJamesThe3rd/ledgerly/internal/event"
)

const (
	publishTimeout = 5 * time.Second
	queueSize      = 256
)

// channel is the subset of *amqp091.Channel the client publishes through.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

type queued struct {
	ctx   context.Context
	event event.LedgerChanged
}

// Client publishes ledger events. Forward hands events to a background
// worker so a slow broker never holds up the request that raised them.
type Client struct {
	conn     *amqp091.Connection
	channel  channel
	exchange string

	mu     sync.RWMutex
	closed bool
	queue  chan queued
	done   chan struct{}
}

func newClient(ch channel, exchange string, size int) *Client {
	c := &Client{
		channel:  ch,
		exchange: exchange,
		queue:    make(chan queued, size),
		done:     make(chan struct{}),
	}

	go c.run()

	return c
}

func NewClient(url, exchange string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()

		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	c := newClient(ch, exchange, queueSize)
	c.conn = conn

	return c, nil
}

// RoutingKey is ledger.<entity>.<action>, e.g. "ledger.payment.created".
func RoutingKey(e event.LedgerChanged) string {
	return fmt.Sprintf("ledger.%s.%s", e.Entity, e.Action)
}

// Publish sends e as a persistent JSON message.
func (c *Client) Publish(ctx context.Context, e event.LedgerChanged) error {
	body, err := Encode(e)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchange,    // exchange
		RoutingKey(e), // routing key
		false,         // mandatory
		false,         // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    e.At,
			MessageId:    e.ID.String(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	slog.DebugContext(ctx, "published ledger event",
		"company_id", e.CompanyID,
		"routing_key", RoutingKey(e),
		"exchange", c.exchange)

	return nil
}

// Forward has the event.Handler signature. It only enqueues; when the queue
// is full or the client is closed the event is dropped with a warning.
func (c *Client) Forward(ctx context.Context, e event.LedgerChanged) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		slog.WarnContext(ctx, "dropping ledger event, client closed", "entity", e.Entity, "action", e.Action, "id", e.ID)
		return
	}

	select {
	case c.queue <- queued{ctx: context.WithoutCancel(ctx), event: e}:
	default:
		slog.WarnContext(ctx, "dropping ledger event, forward queue full", "entity", e.Entity, "action", e.Action, "id", e.ID)
	}
}

func (c *Client) run() {
	defer close(c.done)

	for q := range c.queue {
		if err := c.Publish(q.ctx, q.event); err != nil {
			slog.ErrorContext(q.ctx, "failed to forward ledger event",
				"error", err,
				"entity", q.event.Entity,
				"action", q.event.Action,
				"id", q.event.ID)
		}
	}
}

// Close publishes whatever is still queued, then closes the channel and
// connection.
func (c *Client) Close() error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.queue)
	}
	c.mu.Unlock()

	<-c.done

	if c.channel != nil {
		c.channel.Close()
	}

	if c.conn != nil {
		return c.conn.Close()
	}

	return nil
}
