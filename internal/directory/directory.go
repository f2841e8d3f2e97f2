// Package directory covers the people and site management surface. User
// listings are masked by default; personal data is only reachable through a
// reveal token obtained via the verification flow, presented as the bearer
// on a dedicated endpoint and only while its local deadline holds.
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/geoasistencia/console/internal/api"
	apperrors "github.com/geoasistencia/console/internal/errors"
	"github.com/geoasistencia/console/internal/session"
	appvalidation "github.com/geoasistencia/console/internal/validation"
	"github.com/geoasistencia/console/internal/verify"
)

// User is one masked directory row. The email is masked server-side; the
// clear value only exists inside a reveal window.
type User struct {
	ID        string       `json:"id"`
	Codigo    string       `json:"codigo"`
	Rol       session.Role `json:"rol"`
	SedeID    string       `json:"sede_id"`
	EmailMask string       `json:"email_mask"`
	Activo    bool         `json:"activo"`
}

// UserInput creates or updates a user.
type UserInput struct {
	Codigo   string `json:"codigo"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
	Rol      string `json:"rol,omitempty"`
	SedeID   string `json:"sede_id,omitempty"`
	Activo   *bool  `json:"activo,omitempty"`
}

// Validate checks the input before any network call. Email and password are
// optional on update; when present they must be well-formed.
func (in UserInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Codigo, validation.Required, appvalidation.NotBlank),
		validation.Field(&in.Email, validation.When(in.Email != "", appvalidation.Email)),
		validation.Field(&in.Password, validation.When(in.Password != "", validation.Length(8, 0))),
	)
	return appvalidation.WrapValidationError(err)
}

// PII is the clear personal data of one user, returned only inside a reveal
// window. Transient by contract; never persist it.
type PII struct {
	UsuarioID string `json:"usuario_id"`
	Nombre    string `json:"nombre"`
	Email     string `json:"email"`
	Telefono  string `json:"telefono"`
	Documento string `json:"documento"`
}

// Sede is one site with its geofence.
type Sede struct {
	ID       string  `json:"id"`
	Nombre   string  `json:"nombre"`
	Latitud  float64 `json:"latitud"`
	Longitud float64 `json:"longitud"`
	Radio    float64 `json:"radio"`
}

// SedeInput creates or updates a site.
type SedeInput struct {
	Nombre   string  `json:"nombre"`
	Latitud  float64 `json:"latitud"`
	Longitud float64 `json:"longitud"`
	Radio    float64 `json:"radio"`
}

// Validate checks the geofence before any network call.
func (in SedeInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Nombre, validation.Required, appvalidation.NotBlank),
		validation.Field(&in.Latitud, appvalidation.Latitude),
		validation.Field(&in.Longitud, appvalidation.Longitude),
		validation.Field(&in.Radio, validation.Required, validation.Min(1.0)),
	)
	return appvalidation.WrapValidationError(err)
}

// Profile is the caller's own account as reported by the backend.
type Profile struct {
	UsuarioID string       `json:"usuario_id"`
	Codigo    string       `json:"codigo"`
	Rol       session.Role `json:"rol"`
	SedeID    string       `json:"sede_id"`
	EmailMask string       `json:"email_mask"`
}

// Service exposes the directory operations.
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

// NewService creates a directory service.
func NewService(client *api.Client, logger *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{client: client, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Users lists the masked directory.
func (s *Service) Users(ctx context.Context, limit int) ([]User, error) {
	path := "/admin/usuarios"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []User
	if err := s.client.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateUser registers a new user.
func (s *Service) CreateUser(ctx context.Context, in UserInput) (*User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out User
	if err := s.client.Post(ctx, "/admin/usuarios", in, &out); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user created", "codigo", out.Codigo)
	return &out, nil
}

// UpdateUser edits a user. Requires a still valid USER_EDIT capability,
// sent out-of-band; a locally expired one is refused without touching the
// network.
func (s *Service) UpdateUser(ctx context.Context, id string, in UserInput, capability verify.Capability) (*User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if capability.Action != verify.ActionUserEdit {
		return nil, apperrors.Wrapf(apperrors.ErrForbidden, "capability action %s cannot edit a user", capability.Action)
	}
	if !capability.Valid(s.now()) {
		return nil, apperrors.ErrCapabilityExpired
	}
	var out User
	err := s.client.Put(ctx, fmt.Sprintf("/admin/usuarios/%s", id), in, &out,
		api.WithActionToken(capability.Token))
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user updated", "id", id)
	return &out, nil
}

// RevealPII fetches the clear personal data of one user. The reveal token is
// presented as the request bearer in place of the session credential. A
// capability past its local deadline is refused here without touching the
// network, even if the backend might still accept it.
func (s *Service) RevealPII(ctx context.Context, targetID string, capability verify.Capability) (*PII, error) {
	if capability.Action != verify.ActionPIIReveal {
		return nil, apperrors.Wrapf(apperrors.ErrForbidden, "capability action %s cannot reveal personal data", capability.Action)
	}
	if !capability.Valid(s.now()) {
		return nil, apperrors.ErrCapabilityExpired
	}
	var out PII
	err := s.client.Get(ctx, fmt.Sprintf("/admin/privacy/usuarios/%s/pii", targetID), &out,
		api.WithBearer(capability.Token))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Sedes lists all sites.
func (s *Service) Sedes(ctx context.Context) ([]Sede, error) {
	var out []Sede
	if err := s.client.Get(ctx, "/admin/sedes", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSede registers a new site.
func (s *Service) CreateSede(ctx context.Context, in SedeInput) (*Sede, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out Sede
	if err := s.client.Post(ctx, "/admin/sedes", in, &out); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "sede created", "nombre", out.Nombre)
	return &out, nil
}

// UpdateSede edits an existing site.
func (s *Service) UpdateSede(ctx context.Context, id string, in SedeInput) (*Sede, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out Sede
	if err := s.client.Put(ctx, fmt.Sprintf("/admin/sedes/%s", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MySede returns the caller's own site.
func (s *Service) MySede(ctx context.Context) (*Sede, error) {
	var out Sede
	if err := s.client.Get(ctx, "/admin/mi-sede", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMySede edits the caller's own site geofence. Requires a still valid
// SEDE_EDIT capability; a locally expired one is refused without touching
// the network.
func (s *Service) UpdateMySede(ctx context.Context, in SedeInput, capability verify.Capability) (*Sede, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if capability.Action != verify.ActionSedeEdit {
		return nil, apperrors.Wrapf(apperrors.ErrForbidden, "capability action %s cannot edit the site", capability.Action)
	}
	if !capability.Valid(s.now()) {
		return nil, apperrors.ErrCapabilityExpired
	}
	var out Sede
	err := s.client.Put(ctx, "/admin/mi-sede", in, &out,
		api.WithActionToken(capability.Token))
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "own sede updated", "nombre", out.Nombre)
	return &out, nil
}

// Me returns the caller's own account.
func (s *Service) Me(ctx context.Context) (*Profile, error) {
	var out Profile
	if err := s.client.Get(ctx, "/admin/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
