// Package authn enforces the authentication decision before dispatch.
package authn

import (
	"context"
	"log/slog"

	"github.com/atlanticdynamic/toolgate/internal/server/auth"
	"github.com/atlanticdynamic/toolgate/internal/server/listener/respond"
	"github.com/robbyt/go-supervisor/runnables/httpserver"
)

// Authorizer decides whether a request may proceed.
type Authorizer interface {
	Authorize(ctx context.Context, token string, present bool) auth.Decision
}

// Middleware rejects requests the Authorizer does not allow.
type Middleware struct {
	authorizer Authorizer
	logger     *slog.Logger
}

// New returns an authentication middleware. A nil logHandler uses the default logger.
func New(authorizer Authorizer, logHandler slog.Handler) *Middleware {
	logger := slog.Default()
	if logHandler != nil {
		logger = slog.New(logHandler)
	}
	return &Middleware{
		authorizer: authorizer,
		logger:     logger.WithGroup("authn"),
	}
}

// Handler returns the middleware function.
func (m *Middleware) Handler() httpserver.HandlerFunc {
	return func(rp *httpserver.RequestProcessor) {
		r := rp.Request()

		token, present := auth.ExtractBearer(r.Header)
		decision := m.authorizer.Authorize(r.Context(), token, present)
		if decision.Outcome == auth.Allowed {
			rp.Next()
			return
		}

		details := ""
		if decision.Err != nil {
			details = decision.Err.Error()
		}

		status := decision.StatusCode()
		m.logger.Warn("Request rejected",
			"outcome", decision.Outcome.String(),
			"reason", decision.Reason,
			"status", status,
			"remoteAddr", r.RemoteAddr,
		)
		respond.Error(rp.Writer(), status, decision.Reason, details)
		rp.Abort()
	}
}
