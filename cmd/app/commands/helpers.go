// Package commands contains CLI command implementations for the application.
package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/geoasistencia/console/internal/app"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// closeContainer closes all resources in the container and logs any errors.
func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

// outputJSON writes v as indented JSON.
func outputJSON(v any, w io.Writer) {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(v)
}

// promptLine prints a label and reads one trimmed line.
func promptLine(io IOTuple, label string) (string, error) {
	_, _ = fmt.Fprint(io.Writer, label)
	reader := bufio.NewReader(io.Reader)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echo when stdin is a terminal,
// falling back to a plain line read otherwise (tests, pipes).
func promptPassword(io IOTuple, label string) (string, error) {
	if f, ok := io.Reader.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(io.Writer, label)
		raw, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(io.Writer)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(raw), nil
	}
	return promptLine(io, label)
}
