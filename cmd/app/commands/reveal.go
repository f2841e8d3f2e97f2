package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geoasistencia/console/internal/directory"
	"github.com/geoasistencia/console/internal/reveal"
	"github.com/geoasistencia/console/internal/verify"
)

// RunRevealPII walks the full reveal workflow: verification with
// justification and password, the PII fetch with the issued reveal token,
// and the local countdown. The record is printed once and the countdown runs
// until expiry or Ctrl-C; either way the record is purged before returning.
func RunRevealPII(
	ctx context.Context,
	flow *verify.Flow,
	directoryService *directory.Service,
	revealSession *reveal.Session,
	logger *slog.Logger,
	targetID string,
	motivo string,
	password string,
	io IOTuple,
) error {
	result, _, err := collectVerification(ctx, flow,
		verify.PendingAction{Kind: verify.PendingPIIReveal, TargetID: targetID},
		motivo, password, io)
	if err != nil {
		return err
	}

	pii, err := directoryService.RevealPII(ctx, targetID, result.Capability)
	if err != nil {
		return err
	}

	logger.Info("pii revealed", slog.String("target_id", targetID))

	revealSession.Start(result.Capability, pii)

	_, _ = fmt.Fprintf(io.Writer, "Usuario:   %s\n", pii.UsuarioID)
	_, _ = fmt.Fprintf(io.Writer, "Nombre:    %s\n", pii.Nombre)
	_, _ = fmt.Fprintf(io.Writer, "Email:     %s\n", pii.Email)
	if pii.Telefono != "" {
		_, _ = fmt.Fprintf(io.Writer, "Teléfono:  %s\n", pii.Telefono)
	}
	if pii.Documento != "" {
		_, _ = fmt.Fprintf(io.Writer, "Documento: %s\n", pii.Documento)
	}
	_, _ = fmt.Fprintf(io.Writer, "Visible for %d seconds\n", revealSession.Remaining())

	revealSession.Run(ctx)
	revealSession.Dismiss()

	_, _ = fmt.Fprintln(io.Writer, "Reveal window closed")
	return nil
}
