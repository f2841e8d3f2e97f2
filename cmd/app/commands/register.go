package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geoasistencia/console/internal/attendance"
)

// RunRegister submits an employee check-in or check-out. App mode sends the
// given coordinates; manual mode sends the written explanation and lands in
// the admin review queue.
func RunRegister(
	ctx context.Context,
	attendanceService *attendance.Service,
	logger *slog.Logger,
	tipo string,
	modo string,
	lat float64,
	lng float64,
	hasGeo bool,
	detalle string,
	io IOTuple,
) error {
	input := attendance.RegisterInput{Tipo: tipo, Modo: modo, Detalle: detalle}
	if hasGeo {
		input.Latitud = &lat
		input.Longitud = &lng
	}

	result, err := attendanceService.Register(ctx, input)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(io.Writer, "Registered %s (%s): %s\n", tipo, modo, result.Estado)
	if result.Mensaje != "" {
		_, _ = fmt.Fprintln(io.Writer, result.Mensaje)
	}
	if modo == attendance.ModoApp && !result.DentroDeRango {
		_, _ = fmt.Fprintln(io.Writer, "Warning: position reported outside the site geofence")
	}
	return nil
}

// RunMyRecords lists the caller's own registrations.
func RunMyRecords(
	ctx context.Context,
	attendanceService *attendance.Service,
	limit int,
	format string,
	io IOTuple,
) error {
	records, err := attendanceService.MyRecords(ctx, limit)
	if err != nil {
		return err
	}

	if format == "json" {
		outputJSON(records, io.Writer)
		return nil
	}
	if len(records) == 0 {
		_, _ = fmt.Fprintln(io.Writer, "No registrations")
		return nil
	}
	for _, record := range records {
		_, _ = fmt.Fprintf(io.Writer, "%s  %-7s %-6s %s\n",
			record.CreadoEn.Format("2006-01-02 15:04"), record.Tipo, record.Modo, record.ID)
	}
	return nil
}
