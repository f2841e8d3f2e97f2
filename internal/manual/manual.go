// Package manual covers the review queue for manual attendance requests:
// listing, the pending-count badge, the capability-gated detail view, and
// the approve/reject decision.
package manual

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/geoasistencia/console/internal/api"
	apperrors "github.com/geoasistencia/console/internal/errors"
	appvalidation "github.com/geoasistencia/console/internal/validation"
	"github.com/geoasistencia/console/internal/verify"
)

// Request statuses as the backend reports them.
const (
	StatusPendiente = "pendiente"
	StatusAprobada  = "aprobada"
	StatusRechazada = "rechazada"
)

// Decisions accepted by the decide endpoint.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// Request is one manual attendance request as listed in the queue.
type Request struct {
	ID        string    `json:"id"`
	UsuarioID string    `json:"usuario_id"`
	Codigo    string    `json:"codigo"`
	Tipo      string    `json:"tipo"`
	Estado    string    `json:"estado"`
	CreadoEn  time.Time `json:"creado_en"`
}

// RequestDetail is the sensitive expansion of one request, only reachable
// with a valid ATTENDANCE_VIEW capability.
type RequestDetail struct {
	Request
	Detalle    string     `json:"detalle"`
	Latitud    *float64   `json:"latitud"`
	Longitud   *float64   `json:"longitud"`
	Comentario string     `json:"comentario"`
	DecididoEn *time.Time `json:"decidido_en"`
}

// Decision is the approve/reject input. Comentario carries the reviewer's
// justification through to the audit trail.
type Decision struct {
	Decision   string `json:"decision"`
	Comentario string `json:"comentario"`
}

// Validate checks the decision before any network call.
func (d Decision) Validate() error {
	err := validation.ValidateStruct(&d,
		validation.Field(&d.Decision, validation.Required, validation.In(DecisionApprove, DecisionReject)),
		validation.Field(&d.Comentario, validation.Required, appvalidation.Justification),
	)
	return appvalidation.WrapValidationError(err)
}

// Service exposes the manual review operations.
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

// NewService creates a manual review service.
func NewService(client *api.Client, logger *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{client: client, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns requests filtered by status; an empty status lists all.
func (s *Service) List(ctx context.Context, status string) ([]Request, error) {
	path := "/admin/manual-asistencias"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var out []Request
	if err := s.client.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PendingCount returns the number of requests awaiting a decision. Feeds the
// badge poller.
func (s *Service) PendingCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := s.client.Get(ctx, "/admin/manual-asistencias/count", &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Detail fetches the sensitive expansion of one request. Requires a still
// valid ATTENDANCE_VIEW capability; a locally expired one is refused without
// touching the network.
func (s *Service) Detail(ctx context.Context, id string, capability verify.Capability) (*RequestDetail, error) {
	if capability.Action != verify.ActionAttendanceView {
		return nil, apperrors.Wrapf(apperrors.ErrForbidden, "capability action %s cannot open manual request detail", capability.Action)
	}
	if !capability.Valid(s.now()) {
		return nil, apperrors.ErrCapabilityExpired
	}
	var out RequestDetail
	err := s.client.Get(ctx, fmt.Sprintf("/admin/manual-asistencias/%s/detalle", id), &out,
		api.WithActionToken(capability.Token))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Decide approves or rejects one request. Requires a still valid
// MANUAL_REVIEW capability; the capability travels in the header, never in
// the decision body.
func (s *Service) Decide(ctx context.Context, id string, decision Decision, capability verify.Capability) (*Request, error) {
	if err := decision.Validate(); err != nil {
		return nil, err
	}
	if capability.Action != verify.ActionManualReview {
		return nil, apperrors.Wrapf(apperrors.ErrForbidden, "capability action %s cannot decide a manual request", capability.Action)
	}
	if !capability.Valid(s.now()) {
		return nil, apperrors.ErrCapabilityExpired
	}
	var out Request
	err := s.client.Post(ctx, fmt.Sprintf("/admin/manual-asistencias/%s/decide", id), decision, &out,
		api.WithActionToken(capability.Token))
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "manual request decided", "id", id, "decision", decision.Decision)
	return &out, nil
}
