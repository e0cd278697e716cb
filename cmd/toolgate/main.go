package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "toolgate",
		Version: Version,
		Usage:   "Serve plugin-provided tools over a single authenticated MCP endpoint",
		Commands: []*cli.Command{
			newServeCmd(),
			newToolsCmd(),
			newValidateCmd(),
			newVersionCmd(),
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
