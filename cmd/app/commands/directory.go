package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geoasistencia/console/internal/directory"
	"github.com/geoasistencia/console/internal/verify"
)

// RunListUsers prints the masked user directory.
func RunListUsers(
	ctx context.Context,
	directoryService *directory.Service,
	limit int,
	format string,
	io IOTuple,
) error {
	users, err := directoryService.Users(ctx, limit)
	if err != nil {
		return err
	}

	if format == "json" {
		outputJSON(users, io.Writer)
		return nil
	}
	for _, user := range users {
		state := "active"
		if !user.Activo {
			state = "inactive"
		}
		_, _ = fmt.Fprintf(io.Writer, "%-10s %-10s %-24s %s (%s)\n",
			user.Codigo, user.Rol, user.EmailMask, user.ID, state)
	}
	return nil
}

// RunCreateUser registers a new user.
func RunCreateUser(
	ctx context.Context,
	directoryService *directory.Service,
	logger *slog.Logger,
	input directory.UserInput,
	io IOTuple,
) error {
	user, err := directoryService.CreateUser(ctx, input)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(io.Writer, "Created user %s (%s)\n", user.Codigo, user.ID)
	return nil
}

// RunUpdateUser edits a user behind the verification step.
func RunUpdateUser(
	ctx context.Context,
	flow *verify.Flow,
	directoryService *directory.Service,
	logger *slog.Logger,
	id string,
	input directory.UserInput,
	motivo string,
	password string,
	io IOTuple,
) error {
	result, _, err := collectVerification(ctx, flow,
		verify.PendingAction{Kind: verify.PendingUserEdit, TargetID: id, Payload: input},
		motivo, password, io)
	if err != nil {
		return err
	}

	user, err := directoryService.UpdateUser(ctx, id, input, result.Capability)
	if err != nil {
		return err
	}

	logger.Info("user updated", slog.String("id", id))
	_, _ = fmt.Fprintf(io.Writer, "Updated user %s (%s)\n", user.Codigo, user.ID)
	return nil
}

// RunListSedes prints all sites.
func RunListSedes(
	ctx context.Context,
	directoryService *directory.Service,
	format string,
	io IOTuple,
) error {
	sedes, err := directoryService.Sedes(ctx)
	if err != nil {
		return err
	}

	if format == "json" {
		outputJSON(sedes, io.Writer)
		return nil
	}
	for _, sede := range sedes {
		_, _ = fmt.Fprintf(io.Writer, "%-20s %.6f, %.6f  r=%.0fm  %s\n",
			sede.Nombre, sede.Latitud, sede.Longitud, sede.Radio, sede.ID)
	}
	return nil
}

// RunCreateSede registers a new site.
func RunCreateSede(
	ctx context.Context,
	directoryService *directory.Service,
	logger *slog.Logger,
	input directory.SedeInput,
	io IOTuple,
) error {
	sede, err := directoryService.CreateSede(ctx, input)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(io.Writer, "Created sede %s (%s)\n", sede.Nombre, sede.ID)
	return nil
}

// RunUpdateSede edits an existing site.
func RunUpdateSede(
	ctx context.Context,
	directoryService *directory.Service,
	logger *slog.Logger,
	id string,
	input directory.SedeInput,
	io IOTuple,
) error {
	sede, err := directoryService.UpdateSede(ctx, id, input)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(io.Writer, "Updated sede %s\n", sede.Nombre)
	return nil
}

// RunMySede prints the caller's own site.
func RunMySede(
	ctx context.Context,
	directoryService *directory.Service,
	format string,
	io IOTuple,
) error {
	sede, err := directoryService.MySede(ctx)
	if err != nil {
		return err
	}

	if format == "json" {
		outputJSON(sede, io.Writer)
		return nil
	}
	_, _ = fmt.Fprintf(io.Writer, "%s\n", sede.Nombre)
	_, _ = fmt.Fprintf(io.Writer, "Centro: %.6f, %.6f\n", sede.Latitud, sede.Longitud)
	_, _ = fmt.Fprintf(io.Writer, "Radio:  %.0fm\n", sede.Radio)
	return nil
}

// RunUpdateMySede edits the caller's own site geofence behind the
// verification step.
func RunUpdateMySede(
	ctx context.Context,
	flow *verify.Flow,
	directoryService *directory.Service,
	logger *slog.Logger,
	input directory.SedeInput,
	motivo string,
	password string,
	io IOTuple,
) error {
	result, _, err := collectVerification(ctx, flow,
		verify.PendingAction{Kind: verify.PendingSedeEdit, Payload: input},
		motivo, password, io)
	if err != nil {
		return err
	}

	sede, err := directoryService.UpdateMySede(ctx, input, result.Capability)
	if err != nil {
		return err
	}

	logger.Info("own sede updated", slog.String("nombre", sede.Nombre))
	_, _ = fmt.Fprintf(io.Writer, "Updated sede %s (radio %.0fm)\n", sede.Nombre, sede.Radio)
	return nil
}

// RunMe prints the caller's own account.
func RunMe(ctx context.Context, directoryService *directory.Service, format string, io IOTuple) error {
	profile, err := directoryService.Me(ctx)
	if err != nil {
		return err
	}

	if format == "json" {
		outputJSON(profile, io.Writer)
		return nil
	}
	_, _ = fmt.Fprintf(io.Writer, "%s (%s) rol=%s\n", profile.Codigo, profile.UsuarioID, profile.Rol)
	return nil
}
