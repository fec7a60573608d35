package web

// errors.go provides the JSON response helpers shared by all handlers.
// Errors are logged server-side with the request ID and returned to the
// client as {"error": "..."}.

import (
	"encoding/json"
	"net/http"

	"github.com/catalogd/catalogd/internal/logging"
)

// errorResponse is the JSON body for all error replies.
type errorResponse struct {
	Error string `json:"error"`
}

// writeError logs the failure and writes a JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	logging.FromContext(r.Context()).Error("request failed",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", message,
	)

	writeJSON(w, r, status, errorResponse{Error: message})
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent; all we can do is log.
		logging.FromContext(r.Context()).Error("json encode failed", "error", err)
	}
}
