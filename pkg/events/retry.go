package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/ghuser/itemcatalog/pkg/logger"
)

// RetryPolicy bounds how often a failing handler is re-run for one message.
// The delay doubles after each failed attempt.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy tries three times, waiting 1s then 2s.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}

// run calls handler until it succeeds, the attempts run out or ctx is done.
func (p RetryPolicy) run(ctx context.Context, msg *message.Message, handler Handler, log logger.Logger) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.BaseDelay

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = handler(ctx, msg); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		log.WarnContext(ctx, "events: handler failed, retrying",
			"attempt", attempt,
			"max_attempts", attempts,
			"next_delay", delay,
			"message_uuid", msg.UUID,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("events: handler failed after %d attempts: %w", attempts, err)
}
