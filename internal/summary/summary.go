// Package summary assembles the operator's morning overview by fanning out
// the independent backend reads concurrently.
package summary

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/geoasistencia/console/internal/attendance"
)

// Dashboarder provides the home counters.
type Dashboarder interface {
	Dashboard(ctx context.Context) (*attendance.Dashboard, error)
}

// MissingLister provides the absent-today list.
type MissingLister interface {
	Faltantes(ctx context.Context, fecha string) ([]attendance.Missing, error)
}

// PendingCounter provides the manual review backlog size.
type PendingCounter interface {
	PendingCount(ctx context.Context) (int, error)
}

// Overview is the assembled result.
type Overview struct {
	Dashboard     *attendance.Dashboard
	Faltantes     []attendance.Missing
	PendingManual int
}

// Service assembles overviews.
type Service struct {
	dashboards Dashboarder
	missing    MissingLister
	pending    PendingCounter
}

// NewService creates a summary service over the attendance and manual
// services.
func NewService(dashboards Dashboarder, missing MissingLister, pending PendingCounter) *Service {
	return &Service{dashboards: dashboards, missing: missing, pending: pending}
}

// Overview fetches the three reads in parallel. The first failure cancels
// the remaining fetches and is returned as-is.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	var out Overview
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		dashboard, err := s.dashboards.Dashboard(ctx)
		if err != nil {
			return err
		}
		out.Dashboard = dashboard
		return nil
	})
	g.Go(func() error {
		missing, err := s.missing.Faltantes(ctx, "")
		if err != nil {
			return err
		}
		out.Faltantes = missing
		return nil
	})
	g.Go(func() error {
		count, err := s.pending.PendingCount(ctx)
		if err != nil {
			return err
		}
		out.PendingManual = count
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
