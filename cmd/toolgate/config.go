package main

import (
	"fmt"

	"github.com/atlanticdynamic/toolgate/internal/config"
	"github.com/urfave/cli/v3"
)

const (
	flagConfig   = "config"
	flagListen   = "listen"
	flagToken    = "token"
	flagToolsDir = "tools-dir"
	flagLogLevel = "log-level"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    flagConfig,
		Aliases: []string{"c"},
		Usage:   "Path to a TOML or YAML configuration file",
		Sources: cli.EnvVars("TOOLGATE_CONFIG"),
	}
}

func listenFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    flagListen,
		Aliases: []string{"l"},
		Usage:   "Address to listen on (host:port)",
	}
}

func tokenFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    flagToken,
		Usage:   "Static bearer token required from callers",
		Sources: cli.EnvVars("TOOLGATE_TOKEN"),
	}
}

func toolsDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    flagToolsDir,
		Aliases: []string{"t"},
		Usage:   "Directory scanned for plugin files",
	}
}

func logLevelFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  flagLogLevel,
		Usage: "Log level (debug, info, warn, error)",
	}
}

// loadConfig reads the file named by --config, or starts from defaults, then
// applies any flags that were set.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg := config.New()
	if path := cmd.String(flagConfig); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cmd.IsSet(flagListen) {
		cfg.Listen = cmd.String(flagListen)
	}
	if cmd.IsSet(flagToken) {
		cfg.Auth.Token = cmd.String(flagToken)
	}
	if cmd.IsSet(flagToolsDir) {
		cfg.ToolsDirectory = cmd.String(flagToolsDir)
	}
	if cmd.IsSet(flagLogLevel) {
		cfg.Logging.Level = cmd.String(flagLogLevel)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
