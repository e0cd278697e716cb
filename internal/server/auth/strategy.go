package auth

import (
	"context"
	"log/slog"
)

// Strategy is the single authentication mode chosen for a server: either a
// StaticToken or a Callback. A nil Strategy means none is configured.
type Strategy interface {
	isStrategy()
}

// StaticToken authorizes requests whose bearer token equals it exactly.
type StaticToken string

func (StaticToken) isStrategy() {}

// Callback decides on the presented token, which is empty when the request
// carried none. Returning an error is a server-side failure, not a denial.
type Callback func(ctx context.Context, token string) (bool, error)

func (Callback) isStrategy() {}

// SelectStrategy picks the strategy from the configured sources. A callback
// takes precedence over a static token; when both are supplied the token is
// ignored and a warning is logged.
func SelectStrategy(token string, callback Callback, logger *slog.Logger) Strategy {
	if logger == nil {
		logger = slog.Default()
	}

	switch {
	case callback != nil && token != "":
		logger.Warn("Both an auth callback and a static token are configured; the static token is ignored")
		return callback
	case callback != nil:
		return callback
	case token != "":
		return StaticToken(token)
	default:
		return nil
	}
}

// Describe names a strategy for logs.
func Describe(s Strategy) string {
	switch s.(type) {
	case StaticToken:
		return "static token"
	case Callback:
		return "callback"
	default:
		return "none"
	}
}
