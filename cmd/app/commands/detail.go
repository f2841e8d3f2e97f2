package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/geoasistencia/console/internal/attendance"
	apperrors "github.com/geoasistencia/console/internal/errors"
	"github.com/geoasistencia/console/internal/manual"
	"github.com/geoasistencia/console/internal/reveal"
	"github.com/geoasistencia/console/internal/verify"
)

// collectVerification walks the verification flow for one pending action:
// prompts for the missing inputs, submits, and returns the issued capability
// together with the justification text that was exchanged for it.
func collectVerification(
	ctx context.Context,
	flow *verify.Flow,
	pending verify.PendingAction,
	motivo string,
	password string,
	io IOTuple,
) (*verify.Result, string, error) {
	if err := flow.Begin(pending); err != nil {
		return nil, "", err
	}

	if motivo == "" {
		var err error
		motivo, err = promptLine(io, "Justification: ")
		if err != nil {
			return nil, "", err
		}
	}
	if password == "" {
		var err error
		password, err = promptPassword(io, "Password: ")
		if err != nil {
			return nil, "", err
		}
	}

	result, err := flow.Submit(ctx, motivo, password)
	if err != nil {
		return nil, "", err
	}
	if result == nil {
		// The flow was cancelled while the exchange was in flight; the
		// response was dropped and no capability exists.
		return nil, "", apperrors.New("verification cancelled")
	}
	return result, strings.TrimSpace(motivo), nil
}

// RunAttendanceDetail opens the sensitive detail of one registration. The
// operator verifies with a justification and their password; the issued
// capability is consumed immediately for the fetch, and the detail stays
// visible only while the countdown runs. The record is purged on expiry or
// Ctrl-C, same as the PII reveal.
func RunAttendanceDetail(
	ctx context.Context,
	flow *verify.Flow,
	attendanceService *attendance.Service,
	revealSession *reveal.Session,
	logger *slog.Logger,
	id string,
	motivo string,
	password string,
	format string,
	io IOTuple,
) error {
	result, _, err := collectVerification(ctx, flow,
		verify.PendingAction{Kind: verify.PendingAttendanceDetail, TargetID: id},
		motivo, password, io)
	if err != nil {
		return err
	}

	detail, err := attendanceService.Detail(ctx, id, result.Capability)
	if err != nil {
		return err
	}

	logger.Info("attendance detail opened", slog.String("id", id))

	revealSession.Start(result.Capability, detail)

	if format == "json" {
		outputJSON(detail, io.Writer)
	} else {
		_, _ = fmt.Fprintf(io.Writer, "Registro %s\n", detail.ID)
		_, _ = fmt.Fprintf(io.Writer, "Usuario: %s (%s)\n", detail.UsuarioID, detail.Codigo)
		_, _ = fmt.Fprintf(io.Writer, "Tipo:    %s  Modo: %s\n", detail.Tipo, detail.Modo)
		if detail.Latitud != nil && detail.Longitud != nil {
			_, _ = fmt.Fprintf(io.Writer, "Posición: %.6f, %.6f\n", *detail.Latitud, *detail.Longitud)
		}
		if detail.Detalle != "" {
			_, _ = fmt.Fprintf(io.Writer, "Detalle: %s\n", detail.Detalle)
		}
	}
	_, _ = fmt.Fprintf(io.Writer, "Visible for %d seconds\n", revealSession.Remaining())

	revealSession.Run(ctx)
	revealSession.Dismiss()

	_, _ = fmt.Fprintln(io.Writer, "Detail view closed")
	return nil
}

// RunManualDetail opens the sensitive detail of one manual request, behind
// the same verification step and countdown as the attendance detail.
func RunManualDetail(
	ctx context.Context,
	flow *verify.Flow,
	manualService *manual.Service,
	revealSession *reveal.Session,
	logger *slog.Logger,
	id string,
	motivo string,
	password string,
	format string,
	io IOTuple,
) error {
	result, _, err := collectVerification(ctx, flow,
		verify.PendingAction{Kind: verify.PendingManualDetail, TargetID: id},
		motivo, password, io)
	if err != nil {
		return err
	}

	detail, err := manualService.Detail(ctx, id, result.Capability)
	if err != nil {
		return err
	}

	logger.Info("manual request detail opened", slog.String("id", id))

	revealSession.Start(result.Capability, detail)

	if format == "json" {
		outputJSON(detail, io.Writer)
	} else {
		_, _ = fmt.Fprintf(io.Writer, "Solicitud %s (%s)\n", detail.ID, detail.Estado)
		_, _ = fmt.Fprintf(io.Writer, "Usuario: %s (%s)\n", detail.UsuarioID, detail.Codigo)
		_, _ = fmt.Fprintf(io.Writer, "Detalle: %s\n", detail.Detalle)
		if detail.Comentario != "" {
			_, _ = fmt.Fprintf(io.Writer, "Comentario: %s\n", detail.Comentario)
		}
	}
	_, _ = fmt.Fprintf(io.Writer, "Visible for %d seconds\n", revealSession.Remaining())

	revealSession.Run(ctx)
	revealSession.Dismiss()

	_, _ = fmt.Fprintln(io.Writer, "Detail view closed")
	return nil
}
