package summary

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/geoasistencia/console/internal/attendance"
	"github.com/geoasistencia/console/internal/errors"
)

type MockSources struct {
	mock.Mock
}

func (m *MockSources) Dashboard(ctx context.Context) (*attendance.Dashboard, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*attendance.Dashboard), args.Error(1)
}

func (m *MockSources) Faltantes(ctx context.Context, fecha string) ([]attendance.Missing, error) {
	args := m.Called(ctx, fecha)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]attendance.Missing), args.Error(1)
}

func (m *MockSources) PendingCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestOverviewAssemblesAllSources(t *testing.T) {
	sources := new(MockSources)
	sources.On("Dashboard", mock.Anything).Return(&attendance.Dashboard{TotalUsuarios: 40, AsistenciasHoy: 31}, nil)
	sources.On("Faltantes", mock.Anything, "").Return([]attendance.Missing{{UsuarioID: "u-7", Codigo: "EMP-7"}}, nil)
	sources.On("PendingCount", mock.Anything).Return(3, nil)

	service := NewService(sources, sources, sources)
	overview, err := service.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 31, overview.Dashboard.AsistenciasHoy)
	require.Len(t, overview.Faltantes, 1)
	assert.Equal(t, "EMP-7", overview.Faltantes[0].Codigo)
	assert.Equal(t, 3, overview.PendingManual)
	sources.AssertExpectations(t)
}

func TestOverviewSurfacesFirstError(t *testing.T) {
	wantErr := errors.New("backend unavailable")

	sources := new(MockSources)
	sources.On("Dashboard", mock.Anything).Return(nil, wantErr)
	sources.On("Faltantes", mock.Anything, "").Return([]attendance.Missing{}, nil).Maybe()
	sources.On("PendingCount", mock.Anything).Return(0, nil).Maybe()

	service := NewService(sources, sources, sources)
	_, err := service.Overview(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
}
