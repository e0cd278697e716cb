package tools

import (
	"context"
	"errors"
	"fmt"
	"plugin"
)

// Exported symbol names looked up in Go plugins, in order.
var goPluginSymbols = []string{"Register", "Default"}

// GoPluginLoader opens Go plugins built with -buildmode=plugin. The plugin
// must be built against the same toolgate version as the server.
type GoPluginLoader struct{}

func (GoPluginLoader) Extensions() []string {
	return []string{".so"}
}

func (GoPluginLoader) Load(_ context.Context, path string) (RegisterFunc, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Go plugin: %w", err)
	}

	var errs []error
	for _, name := range goPluginSymbols {
		sym, err := p.Lookup(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fn, err := Resolve(sym)
		if err != nil {
			return nil, fmt.Errorf("symbol %s: %w", name, err)
		}
		return fn, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrNoEntryPoint, errors.Join(errs...))
}
