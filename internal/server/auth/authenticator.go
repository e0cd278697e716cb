package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Outcome classifies an authorization decision.
type Outcome int

const (
	Allowed Outcome = iota
	Denied
	// Misconfigured means no strategy exists, so no caller can ever pass.
	Misconfigured
	// Failed means the callback errored, panicked or timed out.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Allowed:
		return "allowed"
	case Denied:
		return "denied"
	case Misconfigured:
		return "misconfigured"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Client-facing reasons.
const (
	ReasonMissingHeader    = "Missing or invalid Authorization header"
	ReasonInvalidToken     = "Invalid bearer token"
	ReasonNotConfigured    = "Bearer token not configured on server"
	ReasonCallbackRejected = "Invalid bearer token (authCallback)"
	ReasonCallbackError    = "Auth callback error"
)

// Decision is the result of Authorize. Err is set only for Failed.
type Decision struct {
	Outcome Outcome
	Reason  string
	Err     error
}

// StatusCode maps the decision to an HTTP status.
func (d Decision) StatusCode() int {
	switch d.Outcome {
	case Allowed:
		return http.StatusOK
	case Denied:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Authenticator applies one Strategy to each request.
type Authenticator struct {
	strategy        Strategy
	callbackTimeout time.Duration
	logger          *slog.Logger
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithCallbackTimeout bounds each callback invocation. Zero means no bound
// beyond the request context.
func WithCallbackTimeout(d time.Duration) Option {
	return func(a *Authenticator) {
		a.callbackTimeout = d
	}
}

// WithLogHandler sets the log handler.
func WithLogHandler(h slog.Handler) Option {
	return func(a *Authenticator) {
		if h != nil {
			a.logger = slog.New(h)
		}
	}
}

// New creates an Authenticator. A nil strategy yields Misconfigured for every
// request.
func New(strategy Strategy, opts ...Option) *Authenticator {
	a := &Authenticator{
		strategy: strategy,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.WithGroup("auth")
	return a
}

// Strategy returns the configured strategy.
func (a *Authenticator) Strategy() Strategy {
	return a.strategy
}

// Authorize decides whether a request carrying token may proceed. present is
// false when no bearer credential was extracted.
func (a *Authenticator) Authorize(ctx context.Context, token string, present bool) Decision {
	switch s := a.strategy.(type) {
	case Callback:
		return a.runCallback(ctx, s, token)

	case StaticToken:
		if !present {
			return Decision{Outcome: Denied, Reason: ReasonMissingHeader}
		}
		if token != string(s) {
			return Decision{Outcome: Denied, Reason: ReasonInvalidToken}
		}
		return Decision{Outcome: Allowed}

	default:
		return Decision{Outcome: Misconfigured, Reason: ReasonNotConfigured}
	}
}

type callbackResult struct {
	ok  bool
	err error
}

func (a *Authenticator) runCallback(ctx context.Context, cb Callback, token string) Decision {
	if a.callbackTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.callbackTimeout)
		defer cancel()
	}

	done := make(chan callbackResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callbackResult{err: fmt.Errorf("%w: %v", ErrCallbackPanic, r)}
			}
		}()
		ok, err := cb(ctx, token)
		done <- callbackResult{ok: ok, err: err}
	}()

	var res callbackResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = fmt.Errorf("%w: %w", ErrCallbackTimeout, ctx.Err())
	}

	if res.err != nil {
		a.logger.Error("Auth callback failed", "error", res.err)
		return Decision{Outcome: Failed, Reason: ReasonCallbackError, Err: res.err}
	}
	if !res.ok {
		return Decision{Outcome: Denied, Reason: ReasonCallbackRejected}
	}
	return Decision{Outcome: Allowed}
}
