package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoasistencia/console/internal/api"
	"github.com/geoasistencia/console/internal/auth"
	"github.com/geoasistencia/console/internal/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAuthService(t *testing.T, handler http.Handler) (*auth.Service, *session.Store) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	client := api.NewClient(server.URL, store)
	return auth.NewService(client, store, testLogger()), store
}

func TestRunLoginPromptsForPassword(t *testing.T) {
	var gotBody map[string]string
	authService, store := newAuthService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "token-123", "usuario_id": "u-1", "rol": "ADMIN",
		})
	}))

	var out bytes.Buffer
	io := IOTuple{Reader: strings.NewReader("secret\n"), Writer: &out}

	err := RunLogin(context.Background(), authService, testLogger(), "admin@empresa.com", "", io)
	require.NoError(t, err)

	assert.Equal(t, "secret", gotBody["password"])
	assert.Contains(t, out.String(), "Password: ")
	assert.Contains(t, out.String(), "Logged in as admin@empresa.com (ADMIN)")

	stored, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "token-123", stored.Token)
}

func TestRunLoginSurfacesBackendMessage(t *testing.T) {
	authService, _ := newAuthService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, "Credenciales inválidas")
	}))

	var out bytes.Buffer
	err := RunLogin(context.Background(), authService, testLogger(), "admin@empresa.com", "wrong",
		IOTuple{Reader: strings.NewReader(""), Writer: &out})
	require.Error(t, err)
	assert.EqualError(t, err, "Credenciales inválidas")
}

func TestRunWhoami(t *testing.T) {
	authService, store := newAuthService(t, http.NewServeMux())

	var out bytes.Buffer
	require.NoError(t, RunWhoami(authService, "text", IOTuple{Reader: strings.NewReader(""), Writer: &out}))
	assert.Contains(t, out.String(), "Not logged in")

	require.NoError(t, store.Save(&session.Session{Token: "token", UsuarioID: "u-1", Rol: session.RoleAdmin}))

	out.Reset()
	require.NoError(t, RunWhoami(authService, "text", IOTuple{Reader: strings.NewReader(""), Writer: &out}))
	assert.Contains(t, out.String(), "u-1")
	assert.Contains(t, out.String(), "ADMIN")

	// JSON output never includes the bearer token.
	out.Reset()
	require.NoError(t, RunWhoami(authService, "json", IOTuple{Reader: strings.NewReader(""), Writer: &out}))
	assert.NotContains(t, out.String(), "token")
}

func TestRunLogout(t *testing.T) {
	authService, store := newAuthService(t, http.NewServeMux())
	require.NoError(t, store.Save(&session.Session{Token: "token", UsuarioID: "u-1", Rol: session.RoleAdmin}))

	var out bytes.Buffer
	require.NoError(t, RunLogout(context.Background(), authService, IOTuple{Reader: strings.NewReader(""), Writer: &out}))
	assert.Contains(t, out.String(), "Logged out")

	stored, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, stored)
}
