package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoasistencia/console/internal/api"
	"github.com/geoasistencia/console/internal/attendance"
	apperrors "github.com/geoasistencia/console/internal/errors"
	"github.com/geoasistencia/console/internal/manual"
	"github.com/geoasistencia/console/internal/reveal"
	"github.com/geoasistencia/console/internal/session"
	"github.com/geoasistencia/console/internal/verify"
)

func newDetailSession() *reveal.Session {
	return reveal.NewSession(reveal.WithInterval(time.Millisecond))
}

func newManualService(client *api.Client) *manual.Service {
	return manual.NewService(client, testLogger())
}

func newAPIClient(t *testing.T, handler http.Handler) *api.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, store.Save(&session.Session{Token: "bearer-token", UsuarioID: "u-1", Rol: session.RoleAdmin}))
	return api.NewClient(server.URL, store)
}

func TestRunAttendanceDetailFullFlow(t *testing.T) {
	lat := -12.05
	lng := -77.04
	mux := http.NewServeMux()
	mux.HandleFunc("POST /admin/actions/verify", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ATTENDANCE_VIEW", body["action"])
		assert.Equal(t, "Revisión de marcación disputada", body["motivo"])
		assert.Equal(t, "secret", body["password"])
		json.NewEncoder(w).Encode(map[string]any{"action_token": "cap-token", "expires_in": 60})
	})
	mux.HandleFunc("GET /admin/asistencias/a-1/detalle", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "cap-token", r.Header.Get("X-Action-Token"))
		json.NewEncoder(w).Encode(attendance.RecordDetail{
			Record:  attendance.Record{ID: "a-1", UsuarioID: "u-3", Codigo: "EMP-42", Tipo: "entrada", Modo: "app"},
			Latitud: &lat, Longitud: &lng,
		})
	})

	client := newAPIClient(t, mux)
	flow := verify.NewFlow(verify.NewExchanger(client), verify.WithTTL(30*time.Millisecond))
	attendanceService := attendance.NewService(client, testLogger())
	revealSession := newDetailSession()

	var out bytes.Buffer
	err := RunAttendanceDetail(context.Background(), flow, attendanceService, revealSession, testLogger(),
		"a-1", "Revisión de marcación disputada", "secret", "text",
		IOTuple{Reader: strings.NewReader(""), Writer: &out})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Registro a-1")
	assert.Contains(t, out.String(), "EMP-42")
	assert.Contains(t, out.String(), "-12.05")
	assert.Contains(t, out.String(), "Detail view closed")
	assert.False(t, revealSession.Active())
	assert.Nil(t, revealSession.Record())
}

func TestRunAttendanceDetailShortJustificationNeverHitsNetwork(t *testing.T) {
	client := newAPIClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for a short justification")
	}))
	flow := verify.NewFlow(verify.NewExchanger(client))
	attendanceService := attendance.NewService(client, testLogger())

	var out bytes.Buffer
	err := RunAttendanceDetail(context.Background(), flow, attendanceService, newDetailSession(), testLogger(),
		"a-1", "corto", "secret", "text",
		IOTuple{Reader: strings.NewReader(""), Writer: &out})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	assert.Equal(t, "La justificación debe tener al menos 15 caracteres.", flow.LastError())
}

func TestRunAttendanceDetailPromptsForMissingInputs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /admin/actions/verify", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Revisión de marcación disputada", body["motivo"])
		assert.Equal(t, "secret", body["password"])
		json.NewEncoder(w).Encode(map[string]any{"action_token": "cap-token"})
	})
	mux.HandleFunc("GET /admin/asistencias/a-1/detalle", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(attendance.RecordDetail{
			Record: attendance.Record{ID: "a-1"},
		})
	})

	client := newAPIClient(t, mux)
	flow := verify.NewFlow(verify.NewExchanger(client), verify.WithTTL(30*time.Millisecond))
	attendanceService := attendance.NewService(client, testLogger())

	var out bytes.Buffer
	err := RunAttendanceDetail(context.Background(), flow, attendanceService, newDetailSession(), testLogger(),
		"a-1", "", "", "text",
		IOTuple{Reader: strings.NewReader("Revisión de marcación disputada\nsecret\n"), Writer: &out})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Justification: ")
	assert.Contains(t, out.String(), "Password: ")
}

func TestRunManualDetailClosesAfterCountdown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /admin/actions/verify", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ATTENDANCE_VIEW", body["action"])
		json.NewEncoder(w).Encode(map[string]any{"action_token": "cap-token", "expires_in": 60})
	})
	mux.HandleFunc("GET /admin/manual-asistencias/m-7/detalle", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "cap-token", r.Header.Get("X-Action-Token"))
		json.NewEncoder(w).Encode(manual.RequestDetail{
			Request: manual.Request{ID: "m-7", UsuarioID: "u-2", Codigo: "EMP-9", Estado: "pendiente"},
			Detalle: "Olvidé marcar al salir de la sede",
		})
	})

	client := newAPIClient(t, mux)
	flow := verify.NewFlow(verify.NewExchanger(client), verify.WithTTL(30*time.Millisecond))
	revealSession := newDetailSession()

	var out bytes.Buffer
	err := RunManualDetail(context.Background(), flow, newManualService(client), revealSession, testLogger(),
		"m-7", "Revisión de solicitud manual disputada", "secret", "text",
		IOTuple{Reader: strings.NewReader(""), Writer: &out})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Solicitud m-7")
	assert.Contains(t, out.String(), "Detail view closed")
	assert.False(t, revealSession.Active())
	assert.Nil(t, revealSession.Record())
}

// cancelDuringExchange simulates a verification abandoned while the backend
// call was in flight: the flow is cancelled before the response lands.
type cancelDuringExchange struct {
	flow *verify.Flow
}

func (v *cancelDuringExchange) VerifyAction(ctx context.Context, action verify.ActionKind, justification, password string) (string, error) {
	v.flow.Cancel()
	return "dead-token", nil
}

func (v *cancelDuringExchange) RevealPII(ctx context.Context, targetID, justification, password string) (string, error) {
	v.flow.Cancel()
	return "dead-token", nil
}

func TestCollectVerificationRefusesCancelledExchange(t *testing.T) {
	verifier := &cancelDuringExchange{}
	flow := verify.NewFlow(verifier)
	verifier.flow = flow

	var out bytes.Buffer
	result, justification, err := collectVerification(context.Background(), flow,
		verify.PendingAction{Kind: verify.PendingAttendanceDetail, TargetID: "a-1"},
		"Revisión de marcación disputada", "secret",
		IOTuple{Reader: strings.NewReader(""), Writer: &out})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Empty(t, justification)
}

func TestRunDecideManualReusesJustificationAsComment(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /admin/actions/verify", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "MANUAL_REVIEW", body["action"])
		json.NewEncoder(w).Encode(map[string]any{"action_token": "cap-token"})
	})
	mux.HandleFunc("POST /admin/manual-asistencias/m-3/decide", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "cap-token", r.Header.Get("X-Action-Token"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "approve", body["decision"])
		assert.Equal(t, "Horario confirmado con su supervisor", body["comentario"])
		json.NewEncoder(w).Encode(map[string]string{"id": "m-3", "estado": "aprobada"})
	})

	client := newAPIClient(t, mux)
	flow := verify.NewFlow(verify.NewExchanger(client))

	var out bytes.Buffer
	err := RunDecideManual(context.Background(), flow, newManualService(client), testLogger(),
		"m-3", "approve", "Horario confirmado con su supervisor", "secret",
		IOTuple{Reader: strings.NewReader(""), Writer: &out})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "aprobada")
}
