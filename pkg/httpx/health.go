package httpx

import (
	"context"
	"net/http"
	"sync"
	"time"
)

const healthTimeout = 2 * time.Second

// HealthChecker is anything with a Ping: the pgx pool, RedisClient and EventBus
// all qualify.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthChecks maps a dependency name to its probe. Nil probes are reported as
// "disabled" and do not affect the overall status.
type HealthChecks map[string]HealthChecker

// HealthResponse is the body written by HealthHandler.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthHandler probes every dependency concurrently within a 2 s budget and
// answers 200 when all respond, 503 otherwise.
func HealthHandler(checks HealthChecks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		var (
			mu sync.Mutex
			wg sync.WaitGroup
		)
		for name, probe := range checks {
			if probe == nil {
				resp.Checks[name] = "disabled"
				continue
			}
			wg.Go(func() {
				state := "ok"
				if err := probe.Ping(ctx); err != nil {
					state = "unreachable"
				}
				mu.Lock()
				defer mu.Unlock()
				resp.Checks[name] = state
				if state != "ok" {
					resp.Status = "degraded"
				}
			})
		}
		wg.Wait()

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		JSON(w, status, resp)
	}
}
