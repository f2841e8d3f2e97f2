package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geoasistencia/console/internal/app"
	"github.com/geoasistencia/console/internal/config"
	apperrors "github.com/geoasistencia/console/internal/errors"
)

// RunWatch runs the long-lived operator mode: the pending manual-request
// count is polled on a fixed interval and printed on change, and when
// metrics are enabled a Prometheus /metrics endpoint is served. Blocks until
// SIGINT/SIGTERM.
func RunWatch(ctx context.Context, version string, io IOTuple) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("starting watch mode", slog.String("version", version))

	defer closeContainer(container, logger)

	sess, err := container.SessionStore().Load()
	if err != nil {
		return err
	}
	if !sess.Authenticated() {
		return apperrors.Wrap(apperrors.ErrNoSession, "log in before starting watch mode")
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	lastCount := -1
	poller, err := container.BadgePoller(func(count int) {
		if count == lastCount {
			return
		}
		lastCount = count
		_, _ = fmt.Fprintf(io.Writer, "%s  %d manual request(s) pending\n",
			time.Now().Format("15:04:05"), count)
	})
	if err != nil {
		return fmt.Errorf("failed to initialize poller: %w", err)
	}

	var metricsServer *http.Server
	if cfg.MetricsEnabled {
		provider, err := container.MetricsProvider()
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", provider.Handler())
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
			Handler: mux,
		}
		go func() {
			logger.Info("metrics server listening", slog.Int("port", cfg.MetricsPort))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", slog.Any("error", err))
			}
		}()
	}

	err = poller.Run(ctx)

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := metricsServer.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", shutdownErr))
		}
	}

	if errors.Is(err, context.Canceled) {
		logger.Info("watch mode stopped")
		return nil
	}
	return err
}
