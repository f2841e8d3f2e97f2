package audit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoasistencia/console/internal/api"
	"github.com/geoasistencia/console/internal/session"
)

func TestListPassesLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/audit", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode([]Entry{
			{ID: "e-1", ActorID: "u-1", Accion: "PII_REVEAL", TargetID: "u-3", Motivo: "Verificación de identidad por reclamo"},
		})
	}))
	t.Cleanup(server.Close)

	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, store.Save(&session.Session{Token: "bearer-token", UsuarioID: "u-1", Rol: session.RoleSuperadmin}))

	service := NewService(api.NewClient(server.URL, store))
	entries, err := service.List(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "PII_REVEAL", entries[0].Accion)
}

func TestListSurfacesBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, "Solo superadmin")
	}))
	t.Cleanup(server.Close)

	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, store.Save(&session.Session{Token: "bearer-token", UsuarioID: "u-1", Rol: session.RoleAdmin}))

	service := NewService(api.NewClient(server.URL, store))
	_, err := service.List(context.Background(), 0)
	require.Error(t, err)
	assert.EqualError(t, err, "Solo superadmin")
}
