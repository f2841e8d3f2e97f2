package attendance

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoasistencia/console/internal/api"
	apperrors "github.com/geoasistencia/console/internal/errors"
	"github.com/geoasistencia/console/internal/session"
	"github.com/geoasistencia/console/internal/verify"
)

func newService(t *testing.T, handler http.Handler, opts ...ServiceOption) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, store.Save(&session.Session{Token: "bearer-token", UsuarioID: "u-1", Rol: session.RoleAdmin}))

	client := api.NewClient(server.URL, store)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(client, logger, opts...)
}

func float(v float64) *float64 { return &v }

func TestRegisterInputValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   RegisterInput
		wantErr bool
	}{
		{
			name:  "app mode with coordinates",
			input: RegisterInput{Tipo: TipoEntrada, Modo: ModoApp, Latitud: float(-12.05), Longitud: float(-77.04)},
		},
		{
			name:    "app mode without coordinates",
			input:   RegisterInput{Tipo: TipoEntrada, Modo: ModoApp},
			wantErr: true,
		},
		{
			name:    "app mode latitude out of range",
			input:   RegisterInput{Tipo: TipoSalida, Modo: ModoApp, Latitud: float(95), Longitud: float(-77.04)},
			wantErr: true,
		},
		{
			name:  "manual mode with full explanation",
			input: RegisterInput{Tipo: TipoEntrada, Modo: ModoManual, Detalle: "Olvidé el teléfono en casa hoy"},
		},
		{
			name:    "manual mode with short explanation",
			input:   RegisterInput{Tipo: TipoEntrada, Modo: ModoManual, Detalle: "olvido"},
			wantErr: true,
		},
		{
			name:    "unknown tipo",
			input:   RegisterInput{Tipo: "pausa", Modo: ModoApp, Latitud: float(0), Longitud: float(0)},
			wantErr: true,
		},
		{
			name:    "unknown modo",
			input:   RegisterInput{Tipo: TipoEntrada, Modo: "kiosk"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRegisterSubmits(t *testing.T) {
	var gotBody RegisterInput
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/asistencia/registro", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(RegisterResult{ID: "a-1", Estado: "registrada", DentroDeRango: true})
	}))

	result, err := service.Register(context.Background(), RegisterInput{
		Tipo: TipoEntrada, Modo: ModoApp, Latitud: float(-12.05), Longitud: float(-77.04),
	})
	require.NoError(t, err)
	assert.Equal(t, "a-1", result.ID)
	assert.True(t, result.DentroDeRango)
	assert.Equal(t, ModoApp, gotBody.Modo)
}

func TestRegisterInvalidInputNeverHitsNetwork(t *testing.T) {
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for invalid input")
	}))

	_, err := service.Register(context.Background(), RegisterInput{Tipo: TipoEntrada, Modo: ModoManual, Detalle: "corto"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
}

func TestDetailSendsCapabilityHeader(t *testing.T) {
	issuedAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/asistencias/a-7/detalle", r.URL.Path)
		require.Equal(t, "cap-token", r.Header.Get("X-Action-Token"))
		require.Equal(t, "Bearer bearer-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(RecordDetail{
			Record:  Record{ID: "a-7", UsuarioID: "u-3", Tipo: TipoEntrada, Modo: ModoApp},
			Latitud: float(-12.05), Longitud: float(-77.04), Detalle: "registro normal",
		})
	}), WithClock(func() time.Time { return issuedAt.Add(10 * time.Second) }))

	capability := verify.Capability{
		Token:     "cap-token",
		Action:    verify.ActionAttendanceView,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(60 * time.Second),
	}
	detail, err := service.Detail(context.Background(), "a-7", capability)
	require.NoError(t, err)
	assert.Equal(t, "a-7", detail.ID)
	require.NotNil(t, detail.Latitud)
}

func TestDetailRefusesExpiredCapabilityLocally(t *testing.T) {
	issuedAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("expired capability must not reach the backend")
	}), WithClock(func() time.Time { return issuedAt.Add(61 * time.Second) }))

	capability := verify.Capability{
		Token:     "cap-token",
		Action:    verify.ActionAttendanceView,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(60 * time.Second),
	}
	_, err := service.Detail(context.Background(), "a-7", capability)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCapabilityExpired))
}

func TestDetailRefusesWrongActionKind(t *testing.T) {
	issuedAt := time.Now()
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("mismatched capability must not reach the backend")
	}))

	capability := verify.Capability{
		Token:     "cap-token",
		Action:    verify.ActionManualReview,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(60 * time.Second),
	}
	_, err := service.Detail(context.Background(), "a-7", capability)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}

func TestListBuildsQuery(t *testing.T) {
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/asistencias/list", r.URL.Path)
		assert.Equal(t, "week", r.URL.Query().Get("range"))
		assert.Equal(t, "EMP-42", r.URL.Query().Get("codigo"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		json.NewEncoder(w).Encode([]Record{{ID: "a-1"}, {ID: "a-2"}})
	}))

	records, err := service.List(context.Background(), ListFilter{Range: RangeWeek, Codigo: "EMP-42", Page: 2})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestMyRecordsLimit(t *testing.T) {
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/asistencia/mis-registros", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode([]Record{{ID: "a-1", Tipo: TipoEntrada}})
	}))

	records, err := service.MyRecords(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, TipoEntrada, records[0].Tipo)
}

func TestDashboard(t *testing.T) {
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/dashboard", r.URL.Path)
		json.NewEncoder(w).Encode(Dashboard{TotalUsuarios: 40, AsistenciasHoy: 31, FaltantesHoy: 9, ManualesPendientes: 3})
	}))

	dashboard, err := service.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 31, dashboard.AsistenciasHoy)
	assert.Equal(t, 3, dashboard.ManualesPendientes)
}

func TestReporteRange(t *testing.T) {
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/asistencias/reporte", r.URL.Path)
		assert.Equal(t, "2026-03-01", r.URL.Query().Get("desde"))
		assert.Equal(t, "2026-03-14", r.URL.Query().Get("hasta"))
		json.NewEncoder(w).Encode([]ReportRow{{Fecha: "2026-03-01", Codigo: "EMP-42", Entradas: 1}})
	}))

	rows, err := service.Reporte(context.Background(), "2026-03-01", "2026-03-14")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "EMP-42", rows[0].Codigo)
}
