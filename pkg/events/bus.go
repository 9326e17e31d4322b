// Package events is the PostgreSQL-backed pub/sub used for item events, built on
// Watermill's SQL transport.
//
// Writes publish through NewTxPublisher so the event row commits or rolls back
// with the item rows (transactional outbox). With WithForwarder the rows land in
// an internal queue and a forwarder daemon relays them to their real topic.
//
// Subscribers sharing cfg.ServiceName form one consumer group: each message is
// handled by exactly one instance. Handlers must be idempotent; a failing handler
// is retried with exponential backoff and the message is Nacked once the retry
// policy is exhausted.
package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ghuser/itemcatalog/pkg/config"
	"github.com/ghuser/itemcatalog/pkg/logger"
)

const (
	shutdownTimeout = 30 * time.Second
	errBufferSize   = 100
	forwarderTopic  = "_forwarder_queue"
	forwarderGroup  = "forwarder-consumer"
)

// Handler processes one message. Returning an error triggers a retry.
type Handler func(ctx context.Context, msg *message.Message) error

// Option configures an EventBus.
type Option func(*EventBus)

// WithForwarder routes every publish through the durable forwarder queue.
// StartForwarder must be called before published events reach subscribers.
func WithForwarder() Option {
	return func(b *EventBus) { b.useForwarder = true }
}

// WithRetry overrides the default retry policy for subscribers.
func WithRetry(p RetryPolicy) Option {
	return func(b *EventBus) { b.retry = p }
}

// EventBus publishes and consumes item events over PostgreSQL.
type EventBus struct {
	publisher    message.Publisher
	subscriber   *watermillsql.Subscriber
	fwd          *forwarder.Forwarder
	db           *sql.DB
	log          logger.Logger
	retry        RetryPolicy
	wg           sync.WaitGroup
	useForwarder bool
}

// NewEventBus opens its own connection to cfg.DefinitionDatabaseURL and sets
// up the SQL publisher and subscriber. Watermill creates its tables on first use.
func NewEventBus(cfg *config.Config, log logger.Logger, opts ...Option) (*EventBus, error) {
	b := &EventBus{log: log, retry: DefaultRetryPolicy}
	for _, opt := range opts {
		opt(b)
	}

	db, err := sql.Open("pgx", cfg.DefinitionDatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("events: open db: %w", err)
	}
	b.db = db

	pub, err := b.newPublisher(db, true)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("events: new publisher: %w", err)
	}
	b.publisher = b.wrap(pub)

	sub, err := b.newSubscriber(cfg.ServiceName + "-consumer")
	if err != nil {
		_ = pub.Close()
		_ = db.Close()
		return nil, fmt.Errorf("events: new subscriber: %w", err)
	}
	b.subscriber = sub

	return b, nil
}

func (b *EventBus) newPublisher(db watermillsql.ContextExecutor, initSchema bool) (*watermillsql.Publisher, error) {
	return watermillsql.NewPublisher(db, watermillsql.PublisherConfig{
		SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
		AutoInitializeSchema: initSchema,
	}, &slogAdapter{log: b.log})
}

func (b *EventBus) newSubscriber(group string) (*watermillsql.Subscriber, error) {
	return watermillsql.NewSubscriber(b.db, watermillsql.SubscriberConfig{
		SchemaAdapter:    watermillsql.DefaultPostgreSQLSchema{},
		OffsetsAdapter:   watermillsql.DefaultPostgreSQLOffsetsAdapter{},
		InitializeSchema: true,
		ConsumerGroup:    group,
	}, &slogAdapter{log: b.log})
}

// wrap envelopes messages for the forwarder queue when forwarding is enabled.
func (b *EventBus) wrap(pub message.Publisher) message.Publisher {
	if !b.useForwarder {
		return pub
	}
	return forwarder.NewPublisher(pub, forwarder.PublisherConfig{ForwarderTopic: forwarderTopic})
}

// StartForwarder runs the daemon that drains the forwarder queue into the real
// topics. It blocks until the daemon is running and may be called only once,
// on a bus built with WithForwarder.
func (b *EventBus) StartForwarder(ctx context.Context) error {
	if !b.useForwarder {
		return errors.New("events: StartForwarder called on non-forwarder EventBus")
	}
	if b.fwd != nil {
		return errors.New("events: forwarder already started")
	}

	fwdSub, err := b.newSubscriber(forwarderGroup)
	if err != nil {
		return fmt.Errorf("events: new forwarder subscriber: %w", err)
	}
	targetPub, err := b.newPublisher(b.db, true)
	if err != nil {
		_ = fwdSub.Close()
		return fmt.Errorf("events: new forwarder target publisher: %w", err)
	}
	fwd, err := forwarder.NewForwarder(fwdSub, targetPub, &slogAdapter{log: b.log}, forwarder.Config{
		ForwarderTopic: forwarderTopic,
	})
	if err != nil {
		_ = targetPub.Close()
		_ = fwdSub.Close()
		return fmt.Errorf("events: create forwarder: %w", err)
	}
	b.fwd = fwd

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.log.InfoContext(ctx, "events: forwarder started")
		if err := fwd.Run(ctx); err != nil {
			b.log.ErrorContext(ctx, "events: forwarder stopped with error", "error", err)
			return
		}
		b.log.InfoContext(ctx, "events: forwarder stopped")
	}()

	select {
	case <-fwd.Running():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("events: context cancelled waiting for forwarder: %w", ctx.Err())
	}
}

// NewTxPublisher returns a Publisher whose writes run inside tx, so the event
// commits atomically with the caller's rows. Schema initialisation is skipped:
// the tables exist once the bus has started.
func (b *EventBus) NewTxPublisher(tx *sql.Tx) (message.Publisher, error) {
	pub, err := b.newPublisher(tx, false)
	if err != nil {
		return nil, fmt.Errorf("events: new tx publisher: %w", err)
	}
	return b.wrap(pub), nil
}

// Publish sends msgs to topic outside of any transaction, carrying the trace
// from ctx.
func (b *EventBus) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		injectTrace(ctx, msg)
	}
	if err := b.publisher.Publish(topic, msgs...); err != nil { //nolint:contextcheck
		return fmt.Errorf("events: publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe consumes topic in the background. Each handler call receives the
// publisher's trace restored from message metadata.
//
// Errors left after the retry policy is exhausted are sent on the returned
// channel (buffered, capacity 100). Callers must drain it:
//
//	errCh, err := bus.Subscribe(ctx, topic, handler)
//	go func() { for err := range errCh { log.ErrorContext(ctx, "subscriber error", "error", err) } }()
//
// Close waits for in-flight handlers.
func (b *EventBus) Subscribe(ctx context.Context, topic string, handler Handler) (<-chan error, error) {
	ch, err := b.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("events: subscribe to %s: %w", topic, err)
	}

	errCh := make(chan error, errBufferSize)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer close(errCh)

		for msg := range ch {
			msgCtx := extractTrace(ctx, msg)
			if err := b.retry.run(msgCtx, msg, handler, b.log); err != nil {
				msg.Nack()
				select {
				case errCh <- err:
				default:
					b.log.ErrorContext(msgCtx, "events: error channel full, dropping error",
						"error", err, "topic", topic)
				}
				continue
			}
			msg.Ack()
		}
	}()

	return errCh, nil
}

// Ping checks the EventBus database connection health.
func (b *EventBus) Ping(ctx context.Context) error {
	if err := b.db.PingContext(ctx); err != nil {
		return fmt.Errorf("events: ping db: %w", err)
	}
	return nil
}

// Close stops the subscriber and the forwarder, waits up to 30 s for in-flight
// handlers, then closes the publisher and the database connection.
func (b *EventBus) Close() error {
	if err := b.subscriber.Close(); err != nil {
		return fmt.Errorf("events: close subscriber: %w", err)
	}
	if b.fwd != nil {
		if err := b.fwd.Close(); err != nil {
			return fmt.Errorf("events: close forwarder: %w", err)
		}
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		b.log.Error("events: timed out waiting for in-flight handlers to complete")
	}

	if err := b.publisher.Close(); err != nil {
		return fmt.Errorf("events: close publisher: %w", err)
	}
	return b.db.Close()
}
