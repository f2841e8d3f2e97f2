package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/geoasistencia/console/internal/api"
	apperrors "github.com/geoasistencia/console/internal/errors"
	"github.com/geoasistencia/console/internal/verify"
)

// ListRange selects the window of the admin list endpoint.
type ListRange string

// Supported list windows.
const (
	RangeDay   ListRange = "day"
	RangeWeek  ListRange = "week"
	RangeMonth ListRange = "month"
)

// ListFilter narrows the admin attendance list.
type ListFilter struct {
	Range  ListRange
	Codigo string
	Page   int
	Limit  int
}

func (f ListFilter) query() string {
	q := url.Values{}
	if f.Range != "" {
		q.Set("range", string(f.Range))
	}
	if f.Codigo != "" {
		q.Set("codigo", f.Codigo)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// Service exposes the attendance operations of the backend.
type Service struct {
	client *api.Client
	logger *slog.Logger
	now    func() time.Time
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates an attendance service.
func NewService(client *api.Client, logger *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{client: client, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register submits an employee check-in or check-out. Input is validated
// locally first; a manual registration enters the admin review queue.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out RegisterResult
	if err := s.client.Post(ctx, "/asistencia/registro", in, &out); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "registration submitted", "tipo", in.Tipo, "modo", in.Modo)
	return &out, nil
}

// MyRecords lists the caller's own registrations, newest first.
func (s *Service) MyRecords(ctx context.Context, limit int) ([]Record, error) {
	path := "/asistencia/mis-registros"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []Record
	if err := s.client.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Recent lists the most recent registrations across the admin's scope.
func (s *Service) Recent(ctx context.Context) ([]Record, error) {
	var out []Record
	if err := s.client.Get(ctx, "/admin/asistencias", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns registrations for a window with optional code filter and
// paging.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Record, error) {
	var out []Record
	if err := s.client.Get(ctx, "/admin/asistencias/list"+filter.query(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Detail fetches the sensitive expansion of one registration. The capability
// must be an ATTENDANCE_VIEW one and still within its local deadline; an
// expired capability is refused here without touching the network.
func (s *Service) Detail(ctx context.Context, id string, capability verify.Capability) (*RecordDetail, error) {
	if capability.Action != verify.ActionAttendanceView {
		return nil, apperrors.Wrapf(apperrors.ErrForbidden, "capability action %s cannot open attendance detail", capability.Action)
	}
	if !capability.Valid(s.now()) {
		return nil, apperrors.ErrCapabilityExpired
	}
	var out RecordDetail
	err := s.client.Get(ctx, fmt.Sprintf("/admin/asistencias/%s/detalle", id), &out,
		api.WithActionToken(capability.Token))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Resumen returns the per-user summary for the queried day.
func (s *Service) Resumen(ctx context.Context, fecha string) ([]SummaryRow, error) {
	path := "/admin/asistencias/resumen"
	if fecha != "" {
		path += "?fecha=" + url.QueryEscape(fecha)
	}
	var out []SummaryRow
	if err := s.client.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Faltantes lists employees with no registration for the queried day.
func (s *Service) Faltantes(ctx context.Context, fecha string) ([]Missing, error) {
	path := "/admin/asistencias/faltantes"
	if fecha != "" {
		path += "?fecha=" + url.QueryEscape(fecha)
	}
	var out []Missing
	if err := s.client.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Reporte returns the aggregated attendance report for a date range.
func (s *Service) Reporte(ctx context.Context, desde, hasta string) ([]ReportRow, error) {
	q := url.Values{}
	if desde != "" {
		q.Set("desde", desde)
	}
	if hasta != "" {
		q.Set("hasta", hasta)
	}
	path := "/admin/asistencias/reporte"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []ReportRow
	if err := s.client.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Dashboard returns the admin home summary counters.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var out Dashboard
	if err := s.client.Get(ctx, "/admin/dashboard", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
