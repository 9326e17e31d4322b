// Package logger is the structured JSON logger shared by the API, the worker
// and the migration command.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ghuser/itemcatalog/pkg/config"
)

// Logger is the logging surface the rest of the module depends on.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	DebugContext(ctx context.Context, msg string, args ...any)
	// With binds key-value pairs to every record of the returned Logger.
	With(args ...any) Logger
	// ToSlog exposes the *slog.Logger for libraries that want one.
	ToSlog() *slog.Logger
}

// New returns a Logger writing JSON to stdout at cfg.LogLevel. Every record
// carries the service name plus trace and request ids when ctx has them.
func New(cfg *config.Config) Logger {
	return NewWithWriter(os.Stdout, cfg)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, cfg *config.Config) Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(cfg.LogLevel)})
	sl := slog.New(&contextHandler{Handler: h})
	if cfg.ServiceName != "" {
		sl = sl.With("service", cfg.ServiceName)
	}
	return &slogLogger{Logger: sl}
}

// slogLogger promotes every *slog.Logger method; only With needs a wrapper.
type slogLogger struct {
	*slog.Logger
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{Logger: l.Logger.With(args...)}
}

func (l *slogLogger) ToSlog() *slog.Logger {
	return l.Logger
}

// ParseLevel maps debug, warn and error to their slog levels. Anything else,
// including the empty string, is Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
