package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/geoasistencia/console/cmd/app/commands"
	"github.com/geoasistencia/console/internal/app"
	"github.com/geoasistencia/console/internal/attendance"
	"github.com/geoasistencia/console/internal/config"
	"github.com/geoasistencia/console/internal/directory"
	"github.com/geoasistencia/console/internal/reveal"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}

func verificationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "motivo",
			Aliases: []string{"m"},
			Usage:   "Justification for the sensitive action (min 15 characters, prompted when omitted)",
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "Account password for step-up verification (prompted without echo when omitted)",
		},
	}
}

func getAdminCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "overview",
			Usage: "Show the admin overview (dashboard, missing today, pending manual requests)",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				summaryService, err := container.SummaryService()
				if err != nil {
					return err
				}

				return commands.RunOverview(ctx, summaryService, cmd.String("format"), commands.DefaultIO())
			},
		},
		{
			Name:  "asistencias",
			Usage: "List the most recent registrations",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				attendanceService, err := container.AttendanceService()
				if err != nil {
					return err
				}

				return commands.RunRecentAttendance(ctx, attendanceService, cmd.String("format"), commands.DefaultIO())
			},
		},
		{
			Name:  "asistencias-list",
			Usage: "List registrations for a day, week, or month window",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "range",
					Aliases: []string{"r"},
					Value:   "day",
					Usage:   "Window: 'day', 'week', or 'month'",
				},
				&cli.StringFlag{
					Name:  "codigo",
					Usage: "Filter by employee code",
				},
				&cli.IntFlag{
					Name:  "page",
					Usage: "Page number",
				},
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Usage:   "Page size",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				attendanceService, err := container.AttendanceService()
				if err != nil {
					return err
				}

				filter := attendance.ListFilter{
					Range:  attendance.ListRange(cmd.String("range")),
					Codigo: cmd.String("codigo"),
					Page:   int(cmd.Int("page")),
					Limit:  int(cmd.Int("limit")),
				}
				return commands.RunListAttendance(ctx, attendanceService, filter, cmd.String("format"), commands.DefaultIO())
			},
		},
		{
			Name:  "asistencia-detail",
			Usage: "Open the sensitive detail of one registration (requires verification)",
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Registration ID",
				},
				formatFlag(),
			}, verificationFlags()...),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				attendanceService, err := container.AttendanceService()
				if err != nil {
					return err
				}
				flow, err := container.VerifyFlow()
				if err != nil {
					return err
				}
				io := commands.DefaultIO()
				revealSession, err := container.RevealSession(
					reveal.WithOnChange(func(left int) {
						_, _ = fmt.Fprintf(io.Writer, "\r%2ds remaining ", left)
					}),
					reveal.WithOnClear(func() {
						_, _ = fmt.Fprintln(io.Writer)
					}),
				)
				if err != nil {
					return err
				}

				return commands.RunAttendanceDetail(
					ctx,
					flow,
					attendanceService,
					revealSession,
					container.Logger(),
					cmd.String("id"),
					cmd.String("motivo"),
					cmd.String("password"),
					cmd.String("format"),
					io,
				)
			},
		},
		{
			Name:  "resumen",
			Usage: "Show the per-user attendance summary for one day",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "fecha",
					Usage: "Day to summarize (YYYY-MM-DD, defaults to today)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				attendanceService, err := container.AttendanceService()
				if err != nil {
					return err
				}

				return commands.RunResumen(ctx, attendanceService, cmd.String("fecha"), cmd.String("format"), commands.DefaultIO())
			},
		},
		{
			Name:  "faltantes",
			Usage: "List employees with no registration for one day",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "fecha",
					Usage: "Day to check (YYYY-MM-DD, defaults to today)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				attendanceService, err := container.AttendanceService()
				if err != nil {
					return err
				}

				return commands.RunFaltantes(ctx, attendanceService, cmd.String("fecha"), cmd.String("format"), commands.DefaultIO())
			},
		},
		{
			Name:  "reporte",
			Usage: "Show the aggregated attendance report for a date range",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "desde",
					Usage: "Range start (YYYY-MM-DD)",
				},
				&cli.StringFlag{
					Name:  "hasta",
					Usage: "Range end (YYYY-MM-DD)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				attendanceService, err := container.AttendanceService()
				if err != nil {
					return err
				}

				return commands.RunReporte(ctx, attendanceService, cmd.String("desde"), cmd.String("hasta"), cmd.String("format"), commands.DefaultIO())
			},
		},
		{
			Name:  "manual-list",
			Usage: "List manual attendance requests",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "status",
					Aliases: []string{"s"},
					Value:   "pendiente",
					Usage:   "Filter: 'pendiente', 'aprobada', or 'rechazada' (empty for all)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				manualService, err := container.ManualService()
				if err != nil {
					return err
				}

				return commands.RunListManual(ctx, manualService, cmd.String("status"), cmd.String("format"), commands.DefaultIO())
			},
		},
		{
			Name:  "manual-count",
			Usage: "Show the number of pending manual requests",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				manualService, err := container.ManualService()
				if err != nil {
					return err
				}

				return commands.RunPendingCount(ctx, manualService, commands.DefaultIO())
			},
		},
		{
			Name:  "manual-detail",
			Usage: "Open the sensitive detail of one manual request (requires verification)",
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Manual request ID",
				},
				formatFlag(),
			}, verificationFlags()...),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				manualService, err := container.ManualService()
				if err != nil {
					return err
				}
				flow, err := container.VerifyFlow()
				if err != nil {
					return err
				}
				io := commands.DefaultIO()
				revealSession, err := container.RevealSession(
					reveal.WithOnChange(func(left int) {
						_, _ = fmt.Fprintf(io.Writer, "\r%2ds remaining ", left)
					}),
					reveal.WithOnClear(func() {
						_, _ = fmt.Fprintln(io.Writer)
					}),
				)
				if err != nil {
					return err
				}

				return commands.RunManualDetail(
					ctx,
					flow,
					manualService,
					revealSession,
					container.Logger(),
					cmd.String("id"),
					cmd.String("motivo"),
					cmd.String("password"),
					cmd.String("format"),
					io,
				)
			},
		},
		{
			Name:  "manual-decide",
			Usage: "Approve or reject one manual request (requires verification)",
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Manual request ID",
				},
				&cli.StringFlag{
					Name:     "decision",
					Aliases:  []string{"d"},
					Required: true,
					Usage:    "Decision: 'approve' or 'reject'",
				},
			}, verificationFlags()...),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				manualService, err := container.ManualService()
				if err != nil {
					return err
				}
				flow, err := container.VerifyFlow()
				if err != nil {
					return err
				}

				return commands.RunDecideManual(
					ctx,
					flow,
					manualService,
					container.Logger(),
					cmd.String("id"),
					cmd.String("decision"),
					cmd.String("motivo"),
					cmd.String("password"),
					commands.DefaultIO(),
				)
			},
		},
		{
			Name:  "usuarios",
			Usage: "List the user directory (emails masked)",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Usage:   "Maximum number of users to list",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				directoryService, err := container.DirectoryService()
				if err != nil {
					return err
				}

				return commands.RunListUsers(ctx, directoryService, int(cmd.Int("limit")), cmd.String("format"), commands.DefaultIO())
			},
		},
		{
			Name:  "usuario-create",
			Usage: "Register a new user",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "codigo",
					Required: true,
					Usage:    "Employee code",
				},
				&cli.StringFlag{
					Name:    "email",
					Aliases: []string{"e"},
					Usage:   "Account email",
				},
				&cli.StringFlag{
					Name:    "password",
					Aliases: []string{"p"},
					Usage:   "Initial password (min 8 characters)",
				},
				&cli.StringFlag{
					Name:  "rol",
					Value: "EMPLEADO",
					Usage: "Role: EMPLEADO, ADMIN, or SUPERADMIN",
				},
				&cli.StringFlag{
					Name:  "sede",
					Usage: "Assigned sede ID",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				directoryService, err := container.DirectoryService()
				if err != nil {
					return err
				}

				input := directory.UserInput{
					Codigo:   cmd.String("codigo"),
					Email:    cmd.String("email"),
					Password: cmd.String("password"),
					Rol:      cmd.String("rol"),
					SedeID:   cmd.String("sede"),
				}
				return commands.RunCreateUser(ctx, directoryService, container.Logger(), input, commands.DefaultIO())
			},
		},
		{
			Name:  "usuario-update",
			Usage: "Edit a user (requires verification)",
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "User ID",
				},
				&cli.StringFlag{
					Name:     "codigo",
					Required: true,
					Usage:    "Employee code",
				},
				&cli.StringFlag{
					Name:    "email",
					Aliases: []string{"e"},
					Usage:   "New account email",
				},
				&cli.StringFlag{
					Name:  "rol",
					Usage: "New role: EMPLEADO, ADMIN, or SUPERADMIN",
				},
				&cli.StringFlag{
					Name:  "sede",
					Usage: "New sede ID",
				},
			}, verificationFlags()...),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				directoryService, err := container.DirectoryService()
				if err != nil {
					return err
				}
				flow, err := container.VerifyFlow()
				if err != nil {
					return err
				}

				input := directory.UserInput{
					Codigo: cmd.String("codigo"),
					Email:  cmd.String("email"),
					Rol:    cmd.String("rol"),
					SedeID: cmd.String("sede"),
				}
				return commands.RunUpdateUser(
					ctx,
					flow,
					directoryService,
					container.Logger(),
					cmd.String("id"),
					input,
					cmd.String("motivo"),
					cmd.String("password"),
					commands.DefaultIO(),
				)
			},
		},
		{
			Name:  "sedes",
			Usage: "List all sites",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				directoryService, err := container.DirectoryService()
				if err != nil {
					return err
				}

				return commands.RunListSedes(ctx, directoryService, cmd.String("format"), commands.DefaultIO())
			},
		},
		{
			Name:  "sede-create",
			Usage: "Register a new site with its geofence",
			Flags: sedeInputFlags(),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				directoryService, err := container.DirectoryService()
				if err != nil {
					return err
				}

				return commands.RunCreateSede(ctx, directoryService, container.Logger(), sedeInputFrom(cmd), commands.DefaultIO())
			},
		},
		{
			Name:  "sede-update",
			Usage: "Edit an existing site",
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Sede ID",
				},
			}, sedeInputFlags()...),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				directoryService, err := container.DirectoryService()
				if err != nil {
					return err
				}

				return commands.RunUpdateSede(ctx, directoryService, container.Logger(), cmd.String("id"), sedeInputFrom(cmd), commands.DefaultIO())
			},
		},
		{
			Name:  "mi-sede",
			Usage: "Show your own site",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				directoryService, err := container.DirectoryService()
				if err != nil {
					return err
				}

				return commands.RunMySede(ctx, directoryService, cmd.String("format"), commands.DefaultIO())
			},
		},
		{
			Name:  "mi-sede-update",
			Usage: "Edit your own site geofence (requires verification)",
			Flags: append(sedeInputFlags(), verificationFlags()...),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				directoryService, err := container.DirectoryService()
				if err != nil {
					return err
				}
				flow, err := container.VerifyFlow()
				if err != nil {
					return err
				}

				return commands.RunUpdateMySede(
					ctx,
					flow,
					directoryService,
					container.Logger(),
					sedeInputFrom(cmd),
					cmd.String("motivo"),
					cmd.String("password"),
					commands.DefaultIO(),
				)
			},
		},
		{
			Name:  "me",
			Usage: "Show your own account",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				directoryService, err := container.DirectoryService()
				if err != nil {
					return err
				}

				return commands.RunMe(ctx, directoryService, cmd.String("format"), commands.DefaultIO())
			},
		},
		{
			Name:  "reveal-pii",
			Usage: "Reveal one user's personal data for 60 seconds (requires verification)",
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Target user ID",
				},
			}, verificationFlags()...),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				directoryService, err := container.DirectoryService()
				if err != nil {
					return err
				}
				flow, err := container.VerifyFlow()
				if err != nil {
					return err
				}
				io := commands.DefaultIO()
				revealSession, err := container.RevealSession(
					reveal.WithOnChange(func(left int) {
						_, _ = fmt.Fprintf(io.Writer, "\r%2ds remaining ", left)
					}),
					reveal.WithOnClear(func() {
						_, _ = fmt.Fprintln(io.Writer)
					}),
				)
				if err != nil {
					return err
				}

				return commands.RunRevealPII(
					ctx,
					flow,
					directoryService,
					revealSession,
					container.Logger(),
					cmd.String("id"),
					cmd.String("motivo"),
					cmd.String("password"),
					io,
				)
			},
		},
		{
			Name:  "audit",
			Usage: "List the most recent audit entries",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Value:   50,
					Usage:   "Maximum number of entries to list",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				auditService, err := container.AuditService()
				if err != nil {
					return err
				}

				return commands.RunAudit(ctx, auditService, int(cmd.Int("limit")), cmd.String("format"), commands.DefaultIO())
			},
		},
	}
}

func sedeInputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "nombre",
			Aliases:  []string{"n"},
			Required: true,
			Usage:    "Site name",
		},
		&cli.FloatFlag{
			Name:     "lat",
			Required: true,
			Usage:    "Geofence center latitude",
		},
		&cli.FloatFlag{
			Name:     "lng",
			Required: true,
			Usage:    "Geofence center longitude",
		},
		&cli.FloatFlag{
			Name:     "radio",
			Aliases:  []string{"r"},
			Required: true,
			Usage:    "Geofence radius in meters",
		},
	}
}

func sedeInputFrom(cmd *cli.Command) directory.SedeInput {
	return directory.SedeInput{
		Nombre:   cmd.String("nombre"),
		Latitud:  cmd.Float("lat"),
		Longitud: cmd.Float("lng"),
		Radio:    cmd.Float("radio"),
	}
}
