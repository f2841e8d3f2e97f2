package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/geoasistencia/console/cmd/app/commands"
	"github.com/geoasistencia/console/internal/app"
	"github.com/geoasistencia/console/internal/attendance"
	"github.com/geoasistencia/console/internal/config"
)

func getAttendanceCommands() []*cli.Command {
	registerFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "modo",
			Aliases: []string{"m"},
			Value:   attendance.ModoApp,
			Usage:   "Registration mode: 'app' (with coordinates) or 'manual' (with explanation)",
		},
		&cli.FloatFlag{
			Name:  "lat",
			Usage: "Device latitude (app mode)",
		},
		&cli.FloatFlag{
			Name:  "lng",
			Usage: "Device longitude (app mode)",
		},
		&cli.StringFlag{
			Name:    "detalle",
			Aliases: []string{"d"},
			Usage:   "Explanation for a manual registration (min 15 characters)",
		},
	}

	register := func(tipo string) func(context.Context, *cli.Command) error {
		return func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.Load()
			container := app.NewContainer(cfg)
			defer func() { _ = container.Shutdown(ctx) }()

			attendanceService, err := container.AttendanceService()
			if err != nil {
				return err
			}

			return commands.RunRegister(
				ctx,
				attendanceService,
				container.Logger(),
				tipo,
				cmd.String("modo"),
				cmd.Float("lat"),
				cmd.Float("lng"),
				cmd.IsSet("lat") && cmd.IsSet("lng"),
				cmd.String("detalle"),
				commands.DefaultIO(),
			)
		}
	}

	return []*cli.Command{
		{
			Name:   "checkin",
			Usage:  "Register a check-in",
			Flags:  registerFlags,
			Action: register(attendance.TipoEntrada),
		},
		{
			Name:   "checkout",
			Usage:  "Register a check-out",
			Flags:  registerFlags,
			Action: register(attendance.TipoSalida),
		},
		{
			Name:  "records",
			Usage: "List your own registrations",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Value:   20,
					Usage:   "Maximum number of registrations to list",
				},
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

				attendanceService, err := container.AttendanceService()
				if err != nil {
					return err
				}

				return commands.RunMyRecords(
					ctx,
					attendanceService,
					int(cmd.Int("limit")),
					cmd.String("format"),
					commands.DefaultIO(),
				)
			},
		},
	}
}
