// Package audit reads the server-side audit trail. Entries are written by
// the backend on every sensitive action; this client only lists them.
package audit

import (
	"context"
	"strconv"
	"time"

	"github.com/geoasistencia/console/internal/api"
)

// Entry is one audit trail row.
type Entry struct {
	ID       string    `json:"id"`
	ActorID  string    `json:"actor_id"`
	Accion   string    `json:"accion"`
	TargetID string    `json:"target_id"`
	Motivo   string    `json:"motivo"`
	CreadoEn time.Time `json:"creado_en"`
}

// Service lists audit entries.
type Service struct {
	client *api.Client
}

// NewService creates an audit service.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// List returns the most recent entries, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]Entry, error) {
	path := "/admin/audit"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []Entry
	if err := s.client.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}
