package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/geoasistencia/console/cmd/app/commands"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "watch",
			Usage: "Run the long-lived operator mode (pending-count badge + /metrics)",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunWatch(ctx, version, commands.DefaultIO())
			},
		},
	}
}
