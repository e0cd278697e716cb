package config

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"

	"github.com/atlanticdynamic/toolgate/internal/logging"
	"golang.org/x/net/http/httpguts"
)

// Validate checks the whole configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if err := validateListen(c.Listen); err != nil {
		errs = append(errs, err)
	}

	for i, name := range c.BuiltinTools {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Errorf("%w: builtin_tools[%d] is empty", ErrInvalidValue, i))
			continue
		}
		if slices.Index(c.BuiltinTools, name) != i {
			errs = append(errs, fmt.Errorf("%w: builtin tool %q listed twice", ErrDuplicateID, name))
		}
	}

	errs = append(errs, c.Auth.Validate())
	errs = append(errs, c.Logging.Validate())

	if c.Capture.MaxBodySize < 0 {
		errs = append(errs, fmt.Errorf("%w: capture.max_body_size must not be negative", ErrInvalidValue))
	}

	errs = append(errs, c.HTTP.Validate())

	if c.Scripts.Timeout < 0 {
		errs = append(errs, fmt.Errorf("scripts.timeout: %w", ErrNegativeDuration))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToValidateConfig, err)
	}
	return nil
}

func validateListen(addr string) error {
	if addr == "" {
		return fmt.Errorf("%w: listen", ErrMissingRequiredField)
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%w: listen %q: %w", ErrInvalidValue, addr, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("%w: listen port %q", ErrInvalidValue, port)
	}
	return nil
}

// Validate checks the auth section. The static token must be usable as an
// Authorization header value, and since presented credentials are trimmed, a
// token with surrounding whitespace could never match.
func (a Auth) Validate() error {
	var errs []error

	if a.Token != "" {
		if !httpguts.ValidHeaderFieldValue(a.Token) {
			errs = append(errs, fmt.Errorf("%w: auth.token contains characters not allowed in a header", ErrInvalidValue))
		}
		if strings.TrimSpace(a.Token) != a.Token || strings.ContainsAny(a.Token, " \t") {
			errs = append(errs, fmt.Errorf("%w: auth.token must not contain whitespace", ErrInvalidValue))
		}
	}

	if a.JWT != nil && a.JWT.Secret == "" {
		errs = append(errs, fmt.Errorf("%w: auth.jwt.secret", ErrMissingRequiredField))
	}

	if a.CallbackTimeout < 0 {
		errs = append(errs, fmt.Errorf("auth.callback_timeout: %w", ErrNegativeDuration))
	}

	return errors.Join(errs...)
}

func (l Logging) Validate() error {
	var errs []error
	if !logging.ValidLevel(l.Level) {
		errs = append(errs, fmt.Errorf("%w: logging.level %q", ErrInvalidValue, l.Level))
	}
	switch logging.Format(l.Format) {
	case logging.FormatText, logging.FormatJSON, "":
	default:
		errs = append(errs, fmt.Errorf("%w: logging.format %q", ErrInvalidValue, l.Format))
	}
	return errors.Join(errs...)
}

func (h HTTP) Validate() error {
	var errs []error
	for name, d := range map[string]Duration{
		"http.read_timeout":  h.ReadTimeout,
		"http.write_timeout": h.WriteTimeout,
		"http.idle_timeout":  h.IdleTimeout,
		"http.drain_timeout": h.DrainTimeout,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s: %w", name, ErrNegativeDuration))
		}
	}
	if h.MaxRequestBytes < 0 {
		errs = append(errs, fmt.Errorf("%w: http.max_request_bytes must not be negative", ErrInvalidValue))
	}
	return errors.Join(errs...)
}
