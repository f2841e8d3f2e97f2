package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/geoasistencia/console/cmd/app/commands"
	"github.com/geoasistencia/console/internal/app"
	"github.com/geoasistencia/console/internal/config"
)

func getAuthCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "login",
			Usage: "Authenticate and store the session locally",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "email",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "Account email",
				},
				&cli.StringFlag{
					Name:    "password",
					Aliases: []string{"p"},
					Usage:   "Account password (prompted without echo when omitted)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				authService, err := container.AuthService()
				if err != nil {
					return err
				}

				return commands.RunLogin(
					ctx,
					authService,
					container.Logger(),
					cmd.String("email"),
					cmd.String("password"),
					commands.DefaultIO(),
				)
			},
		},
		{
			Name:  "logout",
			Usage: "Remove the stored session",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				authService, err := container.AuthService()
				if err != nil {
					return err
				}

				return commands.RunLogout(ctx, authService, commands.DefaultIO())
			},
		},
		{
			Name:  "whoami",
			Usage: "Show the stored session",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				authService, err := container.AuthService()
				if err != nil {
					return err
				}

				return commands.RunWhoami(authService, cmd.String("format"), commands.DefaultIO())
			},
		},
	}
}
