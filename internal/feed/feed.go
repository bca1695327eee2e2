// Package feed consumes settled fixtures from an AMQP exchange and applies them to the
// rating store. Every delivery is acked only after it has been applied, so a crash leads
// to redelivery, which the store ignores by match id.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/elo"
	"github.com/richard-senior/matchodds/pkg/settle"
	"github.com/streadway/amqp"
)

// ErrMalformed marks a message that can never be applied
var ErrMalformed = errors.New("malformed message")

// Applier applies one settled fixture
type Applier interface {
	ApplyResult(ctx context.Context, r settle.FixtureResult) (*elo.Update, error)
}

// Options configure the connection and the queue topology
type Options struct {
	URL        string
	Exchange   string
	Queue      string
	RoutingKey string
	Prefetch   int

	// reconnect backoff
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// withDefaults fills the unset reconnect settings
func (o Options) withDefaults() Options {
	if o.Prefetch <= 0 {
		o.Prefetch = 50
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = time.Second
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = time.Minute
	}
	if o.BackoffFactor < 1 {
		o.BackoffFactor = 2
	}
	return o
}

// Consumer reads the results queue
type Consumer struct {
	opts    Options
	applier Applier
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewConsumer(opts Options, applier Applier) *Consumer {
	return &Consumer{opts: opts.withDefaults(), applier: applier}
}

// decode accepts a single result object or an array of them
func decode(body []byte) ([]settle.FixtureResult, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformed)
	}
	var results []settle.FixtureResult
	if body[0] == '[' {
		if err := json.Unmarshal(body, &results); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	} else {
		var r settle.FixtureResult
		if err := json.Unmarshal(body, &r); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		results = append(results, r)
	}
	for _, r := range results {
		if r.MatchID == "" {
			return nil, fmt.Errorf("%w: result without matchId", ErrMalformed)
		}
	}
	return results, nil
}

// HandleMessage applies every result of a message body and reports how many changed ratings
func (c *Consumer) HandleMessage(ctx context.Context, body []byte) (int, error) {
	results, err := decode(body)
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, r := range results {
		u, err := c.applier.ApplyResult(ctx, r)
		if err != nil {
			return applied, err
		}
		switch {
		case u == nil:
			logger.Debug("Result not final, ignored", r.MatchID, r.Status)
		case u.Skipped:
			logger.Debug("Result already applied", r.MatchID)
		default:
			applied++
			logger.Info("Applied result", r.MatchID, u.HomeChange, u.AwayChange)
		}
	}
	return applied, nil
}

// handle acks applied messages, drops malformed ones and requeues the rest
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	_, err := c.HandleMessage(ctx, d.Body)
	switch {
	case err == nil:
		if err := d.Ack(false); err != nil {
			logger.Warn("Failed to ack delivery", d.DeliveryTag, err)
		}
	case errors.Is(err, ErrMalformed):
		logger.Warn("Dropping malformed message", d.MessageId, err)
		if err := d.Nack(false, false); err != nil {
			logger.Warn("Failed to nack delivery", d.DeliveryTag, err)
		}
	default:
		logger.Error("Failed to apply message, requeueing", d.MessageId, err)
		if err := d.Nack(false, !d.Redelivered); err != nil {
			logger.Warn("Failed to nack delivery", d.DeliveryTag, err)
		}
	}
}

// Run consumes until ctx is cancelled, reconnecting with exponential backoff
func (c *Consumer) Run(ctx context.Context) error {
	if c.opts.URL == "" {
		return errors.New("amqp url is not configured")
	}
	delay := c.opts.InitialDelay
	for {
		msgs, err := c.connect()
		if err == nil {
			delay = c.opts.InitialDelay
			err = c.consume(ctx, msgs)
		}
		c.close()
		if ctx.Err() != nil {
			return nil
		}
		logger.Warn("AMQP connection lost, reconnecting", err, delay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		delay = nextDelay(delay, c.opts)
	}
}

func nextDelay(d time.Duration, o Options) time.Duration {
	next := time.Duration(float64(d) * o.BackoffFactor)
	if next > o.MaxDelay {
		return o.MaxDelay
	}
	return next
}

func (c *Consumer) connect() (<-chan amqp.Delivery, error) {
	conn, err := amqp.DialConfig(c.opts.URL, amqp.Config{Heartbeat: 30 * time.Second, Locale: "en_US"})
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}
	c.conn = conn

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}
	c.channel = ch

	if err := ch.Qos(c.opts.Prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}
	if err := ch.ExchangeDeclare(c.opts.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare(
		c.opts.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, c.opts.RoutingKey, c.opts.Exchange, false, nil); err != nil {
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}
	msgs, err := ch.Consume(
		q.Name,
		"matchodds", // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to consume: %w", err)
	}
	logger.Info("Consuming results", q.Name, c.opts.Exchange, c.opts.RoutingKey)
	return msgs, nil
}

func (c *Consumer) consume(ctx context.Context, msgs <-chan amqp.Delivery) error {
	closed := c.conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-closed:
			if err == nil {
				return errors.New("connection closed")
			}
			return err
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) close() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}
