package tools

import "errors"

var (
	ErrNoEntryPoint      = errors.New("plugin has no entry point")
	ErrPluginPanic       = errors.New("plugin panicked")
	ErrReadDirectory     = errors.New("failed to read tools directory")
	ErrUnknownBuiltin    = errors.New("unknown builtin tool")
	ErrInvalidDirective  = errors.New("invalid directive")
	ErrCompilationFailed = errors.New("script compilation failed")
)
