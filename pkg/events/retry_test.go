package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/itemcatalog/pkg/config"
	"github.com/ghuser/itemcatalog/pkg/logger"
)

var fastRetry = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}

func nopLogger() logger.Logger {
	return logger.New(&config.Config{LogLevel: "error"})
}

func countingHandler(failures int, calls *int) Handler {
	return func(context.Context, *message.Message) error {
		*calls++
		if *calls <= failures {
			return errors.New("projection unavailable")
		}
		return nil
	}
}

func TestRetryPolicy_Run(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		wantErr   bool
		wantCalls int
	}{
		{"first attempt succeeds", 0, false, 1},
		{"succeeds on last attempt", 2, false, 3},
		{"exhausted", 10, true, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := fastRetry.run(context.Background(), message.NewMessage("m", nil),
				countingHandler(tt.failures, &calls), nopLogger())
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "after 3 attempts")
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestRetryPolicy_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := RetryPolicy{}.run(context.Background(), message.NewMessage("m", nil),
		countingHandler(5, &calls), nopLogger())
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}.run(ctx, message.NewMessage("m", nil),
		countingHandler(5, &calls), nopLogger())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
