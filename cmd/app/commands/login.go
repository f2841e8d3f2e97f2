package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geoasistencia/console/internal/auth"
)

// RunLogin authenticates against the backend and persists the session,
// replacing any stored one. When password is empty it is prompted without
// echo.
func RunLogin(
	ctx context.Context,
	authService *auth.Service,
	logger *slog.Logger,
	email string,
	password string,
	io IOTuple,
) error {
	if password == "" {
		var err error
		password, err = promptPassword(io, "Password: ")
		if err != nil {
			return err
		}
	}

	sess, err := authService.Login(ctx, auth.Credentials{Email: email, Password: password})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(io.Writer, "Logged in as %s (%s)\n", email, sess.Rol)
	if sess.Sede != nil {
		_, _ = fmt.Fprintf(io.Writer, "Sede: %s\n", sess.Sede.Nombre)
	}
	return nil
}

// RunLogout removes the persisted session.
func RunLogout(ctx context.Context, authService *auth.Service, io IOTuple) error {
	if err := authService.Logout(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(io.Writer, "Logged out")
	return nil
}

// RunWhoami prints the stored session, if any.
func RunWhoami(authService *auth.Service, format string, io IOTuple) error {
	sess, err := authService.Current()
	if err != nil {
		return err
	}
	if !sess.Authenticated() {
		_, _ = fmt.Fprintln(io.Writer, "Not logged in")
		return nil
	}

	if format == "json" {
		// The bearer token is deliberately not printed.
		outputJSON(map[string]any{
			"usuario_id": sess.UsuarioID,
			"rol":        sess.Rol,
			"sede_id":    sess.SedeID,
		}, io.Writer)
		return nil
	}
	_, _ = fmt.Fprintf(io.Writer, "Usuario: %s\n", sess.UsuarioID)
	_, _ = fmt.Fprintf(io.Writer, "Rol:     %s\n", sess.Rol)
	if sess.SedeID != "" {
		_, _ = fmt.Fprintf(io.Writer, "Sede:    %s\n", sess.SedeID)
	}
	return nil
}
