package dispatch

import "errors"

var (
	ErrDispatchPanic = errors.New("dispatcher panicked")
	ErrHandlerPanic  = errors.New("tool handler panicked")
)
