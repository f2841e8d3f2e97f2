package commands

import (
	"context"
	"fmt"

	"github.com/geoasistencia/console/internal/attendance"
	"github.com/geoasistencia/console/internal/audit"
	"github.com/geoasistencia/console/internal/summary"
)

// RunOverview prints the assembled admin overview.
func RunOverview(
	ctx context.Context,
	summaryService *summary.Service,
	format string,
	io IOTuple,
) error {
	overview, err := summaryService.Overview(ctx)
	if err != nil {
		return err
	}

	if format == "json" {
		outputJSON(overview, io.Writer)
		return nil
	}
	_, _ = fmt.Fprintf(io.Writer, "Usuarios:        %d\n", overview.Dashboard.TotalUsuarios)
	_, _ = fmt.Fprintf(io.Writer, "Asistencias hoy: %d\n", overview.Dashboard.AsistenciasHoy)
	_, _ = fmt.Fprintf(io.Writer, "Faltantes hoy:   %d\n", len(overview.Faltantes))
	_, _ = fmt.Fprintf(io.Writer, "Manuales pend.:  %d\n", overview.PendingManual)
	for _, missing := range overview.Faltantes {
		_, _ = fmt.Fprintf(io.Writer, "  falta: %s\n", missing.Codigo)
	}
	return nil
}

// RunRecentAttendance prints the most recent registrations.
func RunRecentAttendance(
	ctx context.Context,
	attendanceService *attendance.Service,
	format string,
	io IOTuple,
) error {
	records, err := attendanceService.Recent(ctx)
	if err != nil {
		return err
	}

	if format == "json" {
		outputJSON(records, io.Writer)
		return nil
	}
	for _, record := range records {
		_, _ = fmt.Fprintf(io.Writer, "%s  %-7s %-6s %-10s %s\n",
			record.CreadoEn.Format("2006-01-02 15:04"), record.Tipo, record.Modo,
			record.Codigo, record.ID)
	}
	return nil
}

// RunListAttendance prints registrations for a window with paging.
func RunListAttendance(
	ctx context.Context,
	attendanceService *attendance.Service,
	filter attendance.ListFilter,
	format string,
	io IOTuple,
) error {
	records, err := attendanceService.List(ctx, filter)
	if err != nil {
		return err
	}

	if format == "json" {
		outputJSON(records, io.Writer)
		return nil
	}
	for _, record := range records {
		_, _ = fmt.Fprintf(io.Writer, "%s  %-7s %-6s %-10s %s\n",
			record.CreadoEn.Format("2006-01-02 15:04"), record.Tipo, record.Modo,
			record.Codigo, record.ID)
	}
	return nil
}

// RunResumen prints the per-user summary for one day.
func RunResumen(
	ctx context.Context,
	attendanceService *attendance.Service,
	fecha string,
	format string,
	io IOTuple,
) error {
	rows, err := attendanceService.Resumen(ctx, fecha)
	if err != nil {
		return err
	}

	if format == "json" {
		outputJSON(rows, io.Writer)
		return nil
	}
	for _, row := range rows {
		_, _ = fmt.Fprintf(io.Writer, "%-10s entradas=%d salidas=%d\n", row.Codigo, row.Entradas, row.Salidas)
	}
	return nil
}

// RunFaltantes prints employees with no registration for one day.
func RunFaltantes(
	ctx context.Context,
	attendanceService *attendance.Service,
	fecha string,
	format string,
	io IOTuple,
) error {
	missing, err := attendanceService.Faltantes(ctx, fecha)
	if err != nil {
		return err
	}

	if format == "json" {
		outputJSON(missing, io.Writer)
		return nil
	}
	if len(missing) == 0 {
		_, _ = fmt.Fprintln(io.Writer, "Nobody missing")
		return nil
	}
	for _, m := range missing {
		_, _ = fmt.Fprintf(io.Writer, "%-10s %s\n", m.Codigo, m.UsuarioID)
	}
	return nil
}

// RunReporte prints the aggregated report for a date range.
func RunReporte(
	ctx context.Context,
	attendanceService *attendance.Service,
	desde string,
	hasta string,
	format string,
	io IOTuple,
) error {
	rows, err := attendanceService.Reporte(ctx, desde, hasta)
	if err != nil {
		return err
	}

	if format == "json" {
		outputJSON(rows, io.Writer)
		return nil
	}
	for _, row := range rows {
		_, _ = fmt.Fprintf(io.Writer, "%s %-10s entradas=%d salidas=%d faltas=%d\n",
			row.Fecha, row.Codigo, row.Entradas, row.Salidas, row.Faltas)
	}
	return nil
}

// RunAudit prints the most recent audit entries.
func RunAudit(
	ctx context.Context,
	auditService *audit.Service,
	limit int,
	format string,
	io IOTuple,
) error {
	entries, err := auditService.List(ctx, limit)
	if err != nil {
		return err
	}

	if format == "json" {
		outputJSON(entries, io.Writer)
		return nil
	}
	for _, entry := range entries {
		_, _ = fmt.Fprintf(io.Writer, "%s  %-16s actor=%s target=%s %q\n",
			entry.CreadoEn.Format("2006-01-02 15:04"), entry.Accion, entry.ActorID,
			entry.TargetID, entry.Motivo)
	}
	return nil
}
