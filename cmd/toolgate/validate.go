package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/atlanticdynamic/toolgate/internal/config"
	"github.com/urfave/cli/v3"
)

func newValidateCmd() *cli.Command {
	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"lint"},
		Usage:   "Validate a configuration file",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "tree",
				Usage: "Show detailed tree view of the validated configuration",
			},
			configFlag(),
		},
		Suggest: true,
		Action:  validateAction,
	}
}

func validateAction(_ context.Context, cmd *cli.Command) error {
	configPath := cmd.String(flagConfig)
	if configPath == "" {
		if cmd.Args().Len() < 1 {
			return fmt.Errorf(
				"config file path required (use the --config flag, or provide the config file as positional argument)",
			)
		}
		configPath = cmd.Args().Get(0)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := cmd.Root().Writer
	fmt.Fprintf(out, "Configuration file %s is valid\n", configPath)

	if cmd.Bool("tree") {
		fmt.Fprintln(out, cfg)
		return nil
	}
	fmt.Fprintln(out, renderConfigSummary(configPath, cfg))
	return nil
}

// renderConfigSummary creates a formatted summary string for the configuration
func renderConfigSummary(path string, cfg *config.Config) string {
	name, version := cfg.ResolveIdentity()

	var summary strings.Builder
	summary.WriteString("\nConfig Summary:\n")
	fmt.Fprintf(&summary, "- Path: %s\n", path)
	fmt.Fprintf(&summary, "- Server: %s %s\n", name, version)
	fmt.Fprintf(&summary, "- Listen: %s\n", cfg.Listen)
	fmt.Fprintf(&summary, "- Tools Directory: %s\n", cfg.ToolsDirectory)
	fmt.Fprintf(&summary, "- Builtin Tools: %d\n", len(cfg.BuiltinTools))
	fmt.Fprintf(&summary, "- Auth Configured: %t\n", cfg.AuthConfigured())
	summary.WriteString("\nUse --tree for a more detailed view of the config.")
	return summary.String()
}
