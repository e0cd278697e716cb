package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atlanticdynamic/toolgate/cmd/toolgate/server"
	"github.com/atlanticdynamic/toolgate/internal/fancy"
	"github.com/atlanticdynamic/toolgate/internal/logging"
	"github.com/atlanticdynamic/toolgate/internal/server/dispatch"
	"github.com/atlanticdynamic/toolgate/internal/server/tools"
	"github.com/atlanticdynamic/toolgate/internal/server/tools/builtin"
	"github.com/urfave/cli/v3"
)

func newToolsCmd() *cli.Command {
	return &cli.Command{
		Name:  "tools",
		Usage: "Load the configured plugins and list the tools they register",
		Flags: []cli.Flag{
			configFlag(),
			toolsDirFlag(),
			logLevelFlag(),
		},
		Action: toolsAction,
	}
}

func toolsAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// plugin logs go to stderr so the listing stays readable
	handler := logging.NewTextHandler(cfg.Logging.Level, cmd.Root().ErrWriter)

	name, version := cfg.ResolveIdentity()
	d := dispatch.New(name, version, dispatch.WithLogHandler(handler))

	result, err := server.LoadTools(ctx, cfg, d, builtin.Catalog(), handler)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, renderTools(d.Tools(), result))
	if err != nil {
		return err
	}
	if len(result.Failures) > 0 {
		slog.New(handler).Warn("Some plugins failed to load", "failed", len(result.Failures))
	}
	return nil
}

func renderTools(infos []dispatch.ToolInfo, result *tools.Result) string {
	t := fancy.Tree().Root(fancy.RootStyle.Render(fmt.Sprintf("Tools (%d)", len(infos))))
	for _, info := range infos {
		node := fancy.BranchNode(fancy.ToolStyle.Render(info.Name), "from "+info.Owner)
		if info.Description != "" {
			node.Child(fancy.InfoStyle.Render(fancy.TruncateString(info.Description, 80)))
		}
		t.Child(node)
	}
	return t.String() + "\n" + result.String()
}
