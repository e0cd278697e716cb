// Package auth extracts bearer credentials and decides whether a request may
// reach the dispatcher.
package auth

import (
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// ExtractBearer returns the token from the Authorization header. Header lookup
// is case-insensitive; the "Bearer " scheme prefix is not. The token is
// trimmed, and an empty result counts as absent.
func ExtractBearer(h http.Header) (string, bool) {
	value := h.Get("Authorization")
	if !strings.HasPrefix(value, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(value, bearerPrefix))
	if token == "" {
		return "", false
	}
	return token, true
}
