package directory

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

func capabilityFor(action verify.ActionKind, issuedAt time.Time) verify.Capability {
	return verify.Capability{
		Token:     "cap-token",
		Action:    action,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(60 * time.Second),
	}
}

func TestUsersAreMasked(t *testing.T) {
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/usuarios", r.URL.Path)
		json.NewEncoder(w).Encode([]User{
			{ID: "u-3", Codigo: "EMP-42", Rol: session.RoleEmpleado, EmailMask: "j***@empresa.com"},
		})
	}))

	users, err := service.Users(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "j***@empresa.com", users[0].EmailMask)
}

func TestUpdateUserRequiresEditCapability(t *testing.T) {
	issuedAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	t.Run("sends the capability header", func(t *testing.T) {
		service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPut, r.Method)
			require.Equal(t, "/admin/usuarios/u-3", r.URL.Path)
			require.Equal(t, "cap-token", r.Header.Get("X-Action-Token"))
			json.NewEncoder(w).Encode(User{ID: "u-3", Codigo: "EMP-42"})
		}), WithClock(func() time.Time { return issuedAt.Add(time.Second) }))

		updated, err := service.UpdateUser(context.Background(), "u-3",
			UserInput{Codigo: "EMP-42"}, capabilityFor(verify.ActionUserEdit, issuedAt))
		require.NoError(t, err)
		assert.Equal(t, "u-3", updated.ID)
	})

	t.Run("refuses a locally expired capability", func(t *testing.T) {
		service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("expired capability must not reach the backend")
		}), WithClock(func() time.Time { return issuedAt.Add(2 * time.Minute) }))

		_, err := service.UpdateUser(context.Background(), "u-3",
			UserInput{Codigo: "EMP-42"}, capabilityFor(verify.ActionUserEdit, issuedAt))
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrCapabilityExpired))
	})

	t.Run("refuses a mismatched action kind", func(t *testing.T) {
		service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("mismatched capability must not reach the backend")
		}), WithClock(func() time.Time { return issuedAt }))

		_, err := service.UpdateUser(context.Background(), "u-3",
			UserInput{Codigo: "EMP-42"}, capabilityFor(verify.ActionSedeEdit, issuedAt))
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
	})
}

func TestUserInputValidation(t *testing.T) {
	assert.NoError(t, UserInput{Codigo: "EMP-42"}.Validate())
	assert.NoError(t, UserInput{Codigo: "EMP-42", Email: "persona@empresa.com", Password: "longenough"}.Validate())

	err := UserInput{}.Validate()
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))

	err = UserInput{Codigo: "EMP-42", Email: "bad"}.Validate()
	require.Error(t, err)

	err = UserInput{Codigo: "EMP-42", Password: "short"}.Validate()
	require.Error(t, err)
}

func TestRevealPIIUsesTokenAsBearer(t *testing.T) {
	issuedAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/privacy/usuarios/u-3/pii", r.URL.Path)
		require.Equal(t, "Bearer cap-token", r.Header.Get("Authorization"))
		require.Empty(t, r.Header.Get("X-Action-Token"))
		json.NewEncoder(w).Encode(PII{UsuarioID: "u-3", Nombre: "Juana Quispe", Email: "juana@empresa.com"})
	}), WithClock(func() time.Time { return issuedAt.Add(30 * time.Second) }))

	pii, err := service.RevealPII(context.Background(), "u-3", capabilityFor(verify.ActionPIIReveal, issuedAt))
	require.NoError(t, err)
	assert.Equal(t, "juana@empresa.com", pii.Email)
}

func TestRevealPIIRefusedAfterLocalDeadline(t *testing.T) {
	issuedAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("expired reveal token must not reach the backend")
	}), WithClock(func() time.Time { return issuedAt.Add(60 * time.Second) }))

	_, err := service.RevealPII(context.Background(), "u-3", capabilityFor(verify.ActionPIIReveal, issuedAt))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCapabilityExpired))
}

func TestSedeInputValidation(t *testing.T) {
	assert.NoError(t, SedeInput{Nombre: "Sede Central", Latitud: -12.05, Longitud: -77.04, Radio: 120}.Validate())

	err := SedeInput{Nombre: " ", Latitud: 0, Longitud: 0, Radio: 50}.Validate()
	require.Error(t, err)

	err = SedeInput{Nombre: "Sede", Latitud: 95, Longitud: 0, Radio: 50}.Validate()
	require.Error(t, err)

	err = SedeInput{Nombre: "Sede", Latitud: 0, Longitud: 0, Radio: 0}.Validate()
	require.Error(t, err)
}

func TestUpdateMySedeRequiresCapability(t *testing.T) {
	issuedAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/admin/mi-sede", r.URL.Path)
		require.Equal(t, "cap-token", r.Header.Get("X-Action-Token"))
		json.NewEncoder(w).Encode(Sede{ID: "s-1", Nombre: "Sede Central", Radio: 150})
	}), WithClock(func() time.Time { return issuedAt.Add(time.Second) }))

	updated, err := service.UpdateMySede(context.Background(),
		SedeInput{Nombre: "Sede Central", Latitud: -12.05, Longitud: -77.04, Radio: 150},
		capabilityFor(verify.ActionSedeEdit, issuedAt))
	require.NoError(t, err)
	assert.Equal(t, 150.0, updated.Radio)
}

func TestMe(t *testing.T) {
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/me", r.URL.Path)
		json.NewEncoder(w).Encode(Profile{UsuarioID: "u-1", Codigo: "ADM-1", Rol: session.RoleAdmin})
	}))

	profile, err := service.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.RoleAdmin, profile.Rol)
}
