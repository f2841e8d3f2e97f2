// Package auth implements login and logout against the backend and keeps the
// persisted session in step with them.
package auth

import (
	"context"
	"log/slog"

	validation "github.com/jellydator/validation"

	"github.com/geoasistencia/console/internal/api"
	appvalidation "github.com/geoasistencia/console/internal/validation"

	"github.com/geoasistencia/console/internal/session"
)

// Credentials is the login input.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the credentials before any network call.
func (c Credentials) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required, appvalidation.Email),
		validation.Field(&c.Password, validation.Required),
	)
	return appvalidation.WrapValidationError(err)
}

type loginResponse struct {
	AccessToken string                `json:"access_token"`
	UsuarioID   string                `json:"usuario_id"`
	Rol         string                `json:"rol"`
	SedeID      string                `json:"sede_id"`
	Sede        *session.SedeSnapshot `json:"sede"`
}

// Service performs authentication and owns the session file lifecycle.
type Service struct {
	client *api.Client
	store  *session.Store
	logger *slog.Logger
}

// NewService creates an auth service.
func NewService(client *api.Client, store *session.Store, logger *slog.Logger) *Service {
	return &Service{client: client, store: store, logger: logger}
}

// Login exchanges credentials for a bearer token and persists the resulting
// session, replacing any stored one.
func (s *Service) Login(ctx context.Context, creds Credentials) (*session.Session, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	var resp loginResponse
	if err := s.client.Post(ctx, "/auth/login", creds, &resp); err != nil {
		return nil, err
	}

	sess := &session.Session{
		Token:     resp.AccessToken,
		UsuarioID: resp.UsuarioID,
		Rol:       session.ParseRole(resp.Rol),
		SedeID:    resp.SedeID,
		Sede:      resp.Sede,
	}
	if err := s.store.Save(sess); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "logged in", "usuario_id", sess.UsuarioID, "rol", sess.Rol)
	return sess, nil
}

// Logout removes the persisted session. The bearer token is not revoked
// server-side; it simply stops being presented.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.Clear(); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "logged out")
	return nil
}

// Current returns the stored session, or nil when logged out.
func (s *Service) Current() (*session.Session, error) {
	return s.store.Load()
}
