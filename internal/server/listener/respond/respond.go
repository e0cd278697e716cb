// Package respond writes the JSON error payloads shared by the front end.
package respond

import (
	"log/slog"
	"net/http"

	"github.com/atlanticdynamic/toolgate/internal/jsonsafe"
)

// ErrorBody is the payload of every error response. Details is set for
// server-side failures.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// JSON writes v with the given status. Encoding goes through jsonsafe so big
// integers reach the client as strings.
func JSON(w http.ResponseWriter, status int, v any) {
	body, err := jsonsafe.Marshal(v)
	if err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"Internal server error"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Error writes {"error": msg} with optional details.
func Error(w http.ResponseWriter, status int, msg, details string) {
	JSON(w, status, ErrorBody{Error: msg, Details: details})
}
