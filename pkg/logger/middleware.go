package logger

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ghuser/itemcatalog/pkg/httpx"
)

// Middleware logs one line per request. 5xx responses log at Error, 4xx at
// Warn and the rest at Info. The chi route pattern is logged next to the raw
// path so item ids do not explode log cardinality.
func Middleware(log Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"route", routePattern(r),
				"status", status,
				"bytes", ww.BytesWritten(),
				"latency_ms", time.Since(start).Milliseconds(),
				"remote_addr", r.RemoteAddr,
			}
			logAtStatus(r.Context(), log, status, args)
		})
	}
}

func logAtStatus(ctx context.Context, log Logger, status int, args []any) {
	switch {
	case status >= http.StatusInternalServerError:
		log.ErrorContext(ctx, "request", args...)
	case status >= http.StatusBadRequest:
		log.WarnContext(ctx, "request", args...)
	default:
		log.InfoContext(ctx, "request", args...)
	}
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}

// Recovery turns a handler panic into a logged stack trace and a generic JSON
// 500. http.ErrAbortHandler is re-raised so net/http can drop the connection.
func Recovery(log Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler { //nolint:errorlint
					panic(rec)
				}
				log.ErrorContext(r.Context(), "panic recovered",
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				httpx.JSONError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
