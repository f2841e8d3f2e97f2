package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geoasistencia/console/internal/manual"
	"github.com/geoasistencia/console/internal/verify"
)

// RunListManual lists manual requests filtered by status.
func RunListManual(
	ctx context.Context,
	manualService *manual.Service,
	status string,
	format string,
	io IOTuple,
) error {
	requests, err := manualService.List(ctx, status)
	if err != nil {
		return err
	}

	if format == "json" {
		outputJSON(requests, io.Writer)
		return nil
	}
	if len(requests) == 0 {
		_, _ = fmt.Fprintln(io.Writer, "No manual requests")
		return nil
	}
	for _, request := range requests {
		_, _ = fmt.Fprintf(io.Writer, "%s  %-10s %-7s %s (%s)\n",
			request.CreadoEn.Format("2006-01-02 15:04"), request.Estado, request.Tipo,
			request.ID, request.Codigo)
	}
	return nil
}

// RunPendingCount prints the number of manual requests awaiting a decision.
func RunPendingCount(ctx context.Context, manualService *manual.Service, io IOTuple) error {
	count, err := manualService.PendingCount(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(io.Writer, "%d pending\n", count)
	return nil
}

// RunDecideManual approves or rejects one manual request. The decision is a
// sensitive action: the operator verifies with a justification and their
// password, and the justification travels as the decision comment.
func RunDecideManual(
	ctx context.Context,
	flow *verify.Flow,
	manualService *manual.Service,
	logger *slog.Logger,
	id string,
	decision string,
	motivo string,
	password string,
	io IOTuple,
) error {
	result, justification, err := collectVerification(ctx, flow,
		verify.PendingAction{Kind: verify.PendingManualDecide, TargetID: id, Decision: decision},
		motivo, password, io)
	if err != nil {
		return err
	}

	decided, err := manualService.Decide(ctx, id, manual.Decision{
		Decision:   result.Pending.Decision,
		Comentario: justification,
	}, result.Capability)
	if err != nil {
		return err
	}

	logger.Info("manual request decided",
		slog.String("id", id), slog.String("decision", decision))
	_, _ = fmt.Fprintf(io.Writer, "Solicitud %s: %s\n", decided.ID, decided.Estado)
	return nil
}
