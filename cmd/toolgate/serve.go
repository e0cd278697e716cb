package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atlanticdynamic/toolgate/cmd/toolgate/server"
	"github.com/atlanticdynamic/toolgate/internal/logging"
	"github.com/urfave/cli/v3"
)

func newServeCmd() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"server"},
		Usage:   "Start the toolgate server",
		Flags: []cli.Flag{
			configFlag(),
			listenFlag(),
			tokenFlag(),
			toolsDirFlag(),
			logLevelFlag(),
		},
		Action: serveAction,
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cli.Exit(err, 1)
	}

	handler, closer, err := logging.NewHandler(
		logging.Format(cfg.Logging.Format),
		cfg.Logging.Level,
		cfg.Logging.Output,
	)
	if err != nil {
		return cli.Exit(fmt.Errorf("failed to set up logging: %w", err), 1)
	}
	defer func() { _ = closer.Close() }()
	slog.SetDefault(slog.New(handler))

	if err := server.Run(ctx, cfg, server.WithLogHandler(handler)); err != nil {
		return cli.Exit(err, 1)
	}
	return nil
}
