package auth

import "errors"

var (
	ErrCallbackPanic   = errors.New("auth callback panicked")
	ErrCallbackTimeout = errors.New("auth callback timed out")
	ErrEmptySecret     = errors.New("jwt secret is empty")
)
