// Package config loads, interpolates and validates the toolgate server configuration.
package config

import "time"

// Defaults applied by New before a file is decoded on top.
const (
	DefaultListen          = ":8080"
	DefaultToolsDirectory  = "./tools"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultLogOutput       = "stderr"
	DefaultCaptureBodySize = 64 * 1024
	DefaultScriptTimeout   = 30 * time.Second
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultDrainTimeout    = 30 * time.Second
	DefaultMaxRequestBytes = 4 << 20
)

// Config is the complete server configuration. It is treated as immutable once
// the server starts.
type Config struct {
	// Name and Version are advertised by the dispatcher. Empty values fall back
	// to the main module's build info; see ResolveIdentity.
	Name    string `toml:"name"    yaml:"name"    env_interpolation:"yes"`
	Version string `toml:"version" yaml:"version" env_interpolation:"yes"`

	Listen         string   `toml:"listen"          yaml:"listen"          env_interpolation:"yes"`
	ToolsDirectory string   `toml:"tools_directory" yaml:"tools_directory" env_interpolation:"yes"`
	BuiltinTools   []string `toml:"builtin_tools"   yaml:"builtin_tools"`

	// LegacyGlobalToken enables the deprecated process-wide copy of the last
	// bearer token seen. Off by default.
	LegacyGlobalToken bool `toml:"legacy_global_token" yaml:"legacy_global_token"`

	Auth    Auth    `toml:"auth"    yaml:"auth"`
	Logging Logging `toml:"logging" yaml:"logging"`
	Capture Capture `toml:"capture" yaml:"capture"`
	HTTP    HTTP    `toml:"http"    yaml:"http"`
	Scripts Scripts `toml:"scripts" yaml:"scripts"`
}

// Auth selects the authentication strategy. A JWT section configures a
// callback; a programmatic callback supplied at startup overrides both.
type Auth struct {
	Token           string   `toml:"token"            yaml:"token"            env_interpolation:"yes"`
	JWT             *JWT     `toml:"jwt"              yaml:"jwt"`
	CallbackTimeout Duration `toml:"callback_timeout" yaml:"callback_timeout"`
}

// JWT configures HS256 token verification.
type JWT struct {
	Secret   string `toml:"secret"   yaml:"secret"   env_interpolation:"yes"`
	Issuer   string `toml:"issuer"   yaml:"issuer"   env_interpolation:"yes"`
	Audience string `toml:"audience" yaml:"audience" env_interpolation:"yes"`
}

type Logging struct {
	Level  string `toml:"level"  yaml:"level"  env_interpolation:"yes"`
	Format string `toml:"format" yaml:"format"`
	Output string `toml:"output" yaml:"output" env_interpolation:"yes"`
}

// Capture bounds the request and response bodies recorded in request logs.
type Capture struct {
	MaxBodySize int `toml:"max_body_size" yaml:"max_body_size"`
}

type HTTP struct {
	ReadTimeout  Duration `toml:"read_timeout"  yaml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  Duration `toml:"idle_timeout"  yaml:"idle_timeout"`
	DrainTimeout Duration `toml:"drain_timeout" yaml:"drain_timeout"`

	// MaxRequestBytes bounds the request body; larger bodies get a 413.
	MaxRequestBytes int64 `toml:"max_request_bytes" yaml:"max_request_bytes"`
}

// Scripts holds settings shared by every script plugin.
type Scripts struct {
	Timeout Duration `toml:"timeout" yaml:"timeout"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Listen:         DefaultListen,
		ToolsDirectory: DefaultToolsDirectory,
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
			Output: DefaultLogOutput,
		},
		Capture: Capture{MaxBodySize: DefaultCaptureBodySize},
		HTTP: HTTP{
			ReadTimeout:  FromDuration(DefaultReadTimeout),
			WriteTimeout: FromDuration(DefaultWriteTimeout),
			IdleTimeout:  FromDuration(DefaultIdleTimeout),
			DrainTimeout: FromDuration(DefaultDrainTimeout),

			MaxRequestBytes: DefaultMaxRequestBytes,
		},
		Scripts: Scripts{Timeout: FromDuration(DefaultScriptTimeout)},
	}
}

// AuthConfigured reports whether the file configures any strategy. A
// programmatic callback can still be supplied when this is false.
func (c *Config) AuthConfigured() bool {
	return c.Auth.Token != "" || c.Auth.JWT != nil
}
