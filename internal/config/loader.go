package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atlanticdynamic/toolgate/internal/interpolation"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies a config file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q (expected .toml, .yaml or .yml)", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

type loadOptions struct {
	lookup interpolation.LookupFunc
}

// LoadOption customizes Load and Parse.
type LoadOption func(*loadOptions)

// WithLookup replaces the environment used for ${VAR} interpolation.
func WithLookup(fn interpolation.LookupFunc) LoadOption {
	return func(o *loadOptions) {
		o.lookup = fn
	}
}

// Load reads the file at path, decodes it over the defaults and interpolates
// environment references. The result is not validated.
func Load(path string, opts ...LoadOption) (*Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoadConfig, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoadConfig, err)
	}

	return Parse(data, format, opts...)
}

// Parse decodes data in the given format over the defaults. Unknown keys are
// rejected so typos surface at load time.
func Parse(data []byte, format Format, opts ...LoadOption) (*Config, error) {
	o := &loadOptions{lookup: os.LookupEnv}
	for _, opt := range opts {
		opt(o)
	}

	cfg := New()
	if err := decode(data, format, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoadConfig, err)
	}

	if err := interpolation.Struct(cfg, o.lookup); err != nil {
		return nil, fmt.Errorf("%w: interpolation: %w", ErrFailedToLoadConfig, err)
	}

	return cfg, nil
}

func decode(data []byte, format Format, cfg *Config) error {
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("toml: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("yaml: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return nil
}
