package httpx

import (
	"encoding/json"
	"net/http"
)

// JSON writes v as the response body with status. Encoding errors are dropped:
// the header is already on the wire by then.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError writes {"error": message}.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// SafeError returns the client-facing message for err. With hideInternal set,
// 5xx errors collapse to the status text so driver and network details stay in
// the logs.
func SafeError(err error, status int, hideInternal bool) string {
	if hideInternal && status >= http.StatusInternalServerError {
		return http.StatusText(status)
	}
	return err.Error()
}
