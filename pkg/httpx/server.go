package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
)

// Defaults applied by NewRouter when the matching ServerConfig field is zero.
const (
	DefaultRateLimit      = 100
	DefaultMaxBodyBytes   = 1 << 20
	DefaultRequestTimeout = 30 * time.Second
)

// ServerConfig holds the options for NewRouter.
type ServerConfig struct {
	ServiceName   string
	IsDevelopment bool
	// CORSAllowedOrigins is a comma-separated list of allowed origins.
	// "*" allows all and is rejected in production by config validation.
	CORSAllowedOrigins string
	// RateLimit is the number of requests allowed per client IP per minute.
	RateLimit int
	// MaxBodyBytes caps request bodies; item payloads are small.
	MaxBodyBytes int64
	// RequestTimeout is the deadline put on each handler's context.
	RequestTimeout time.Duration
}

func (c ServerConfig) withDefaults() ServerConfig {
	if c.RateLimit <= 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	return c
}

// Middlewares are the application-provided layers of the stack. Nil entries
// are skipped, which keeps tests free of Sentry and OTel.
type Middlewares struct {
	Recovery func(http.Handler) http.Handler
	Sentry   func(http.Handler) http.Handler
	Tracing  func(http.Handler) http.Handler
	Logging  func(http.Handler) http.Handler
}

// NewRouter returns a chi.Mux with the standard middleware stack, outermost first:
//
//	Recovery, Sentry, RequestID, Tracing, Logging, RealIP,
//	per-IP rate limit, CORS, body limit, handler timeout, security headers.
//
// Sentry re-panics after capturing, so Recovery must stay outermost.
func NewRouter(cfg ServerConfig, mw Middlewares) *chi.Mux {
	cfg = cfg.withDefaults()

	sec := secure.New(secure.Options{
		STSSeconds:            63072000,
		STSIncludeSubdomains:  true,
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=(), usb=()",
		IsDevelopment:         cfg.IsDevelopment,
	})

	stack := []func(http.Handler) http.Handler{
		mw.Recovery,
		mw.Sentry,
		middleware.RequestID,
		mw.Tracing,
		mw.Logging,
		middleware.RealIP,
		httprate.LimitByIP(cfg.RateLimit, time.Minute),
		CORSMiddleware(cfg.CORSAllowedOrigins),
		RequestBodyLimit(cfg.MaxBodyBytes),
		middleware.Timeout(cfg.RequestTimeout),
		sec.Handler,
	}

	r := chi.NewRouter()
	for _, m := range stack {
		if m != nil {
			r.Use(m)
		}
	}
	return r
}

// CORSMiddleware allows the catalog's methods from the comma-separated
// allowedOrigins ("*" for any).
func CORSMiddleware(allowedOrigins string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   parseOrigins(allowedOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

func parseOrigins(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// RequestBodyLimit wraps the body in http.MaxBytesReader. Reads past maxBytes
// fail with *http.MaxBytesError.
func RequestBodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// NewServer returns an *http.Server listening on addr. WriteTimeout leaves
// headroom over DefaultRequestTimeout so timed-out handlers can still answer.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      DefaultRequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}
