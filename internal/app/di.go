// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"golang.org/x/time/rate"

	"github.com/geoasistencia/console/internal/api"
	"github.com/geoasistencia/console/internal/attendance"
	"github.com/geoasistencia/console/internal/audit"
	"github.com/geoasistencia/console/internal/auth"
	"github.com/geoasistencia/console/internal/config"
	"github.com/geoasistencia/console/internal/directory"
	"github.com/geoasistencia/console/internal/manual"
	"github.com/geoasistencia/console/internal/metrics"
	"github.com/geoasistencia/console/internal/poll"
	"github.com/geoasistencia/console/internal/reveal"
	"github.com/geoasistencia/console/internal/session"
	"github.com/geoasistencia/console/internal/summary"
	"github.com/geoasistencia/console/internal/verify"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	sessionStore    *session.Store
	metricsProvider *metrics.Provider
	clientMetrics   metrics.ClientMetrics
	apiClient       *api.Client

	// Services
	authService       *auth.Service
	attendanceService *attendance.Service
	manualService     *manual.Service
	directoryService  *directory.Service
	auditService      *audit.Service
	summaryService    *summary.Service

	// Initialization flags and mutex for thread-safety
	mu                    sync.Mutex
	loggerInit            sync.Once
	sessionStoreInit      sync.Once
	metricsProviderInit   sync.Once
	clientMetricsInit     sync.Once
	apiClientInit         sync.Once
	authServiceInit       sync.Once
	attendanceServiceInit sync.Once
	manualServiceInit     sync.Once
	directoryServiceInit  sync.Once
	auditServiceInit      sync.Once
	summaryServiceInit    sync.Once
	initErrors            map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// SessionStore returns the file-backed session store.
func (c *Container) SessionStore() *session.Store {
	c.sessionStoreInit.Do(func() {
		c.sessionStore = session.NewStore(c.config.ResolveSessionPath())
	})
	return c.sessionStore
}

// MetricsProvider returns the metrics provider backing the /metrics handler
// in watch mode. Returns nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// ClientMetrics returns the request/workflow instrumentation. A no-op
// implementation is returned when metrics are disabled.
func (c *Container) ClientMetrics() (metrics.ClientMetrics, error) {
	var err error
	c.clientMetricsInit.Do(func() {
		c.clientMetrics, err = c.initClientMetrics()
		if err != nil {
			c.initErrors["clientMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["clientMetrics"]; exists {
		return nil, storedErr
	}
	return c.clientMetrics, nil
}

// APIClient returns the authenticated request client for the backend.
func (c *Container) APIClient() (*api.Client, error) {
	var err error
	c.apiClientInit.Do(func() {
		c.apiClient, err = c.initAPIClient()
		if err != nil {
			c.initErrors["apiClient"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["apiClient"]; exists {
		return nil, storedErr
	}
	return c.apiClient, nil
}

// AuthService returns the authentication service.
func (c *Container) AuthService() (*auth.Service, error) {
	var err error
	c.authServiceInit.Do(func() {
		var client *api.Client
		client, err = c.APIClient()
		if err != nil {
			c.initErrors["authService"] = err
			return
		}
		c.authService = auth.NewService(client, c.SessionStore(), c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authService"]; exists {
		return nil, storedErr
	}
	return c.authService, nil
}

// AttendanceService returns the attendance service.
func (c *Container) AttendanceService() (*attendance.Service, error) {
	var err error
	c.attendanceServiceInit.Do(func() {
		var client *api.Client
		client, err = c.APIClient()
		if err != nil {
			c.initErrors["attendanceService"] = err
			return
		}
		c.attendanceService = attendance.NewService(client, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["attendanceService"]; exists {
		return nil, storedErr
	}
	return c.attendanceService, nil
}

// ManualService returns the manual review service.
func (c *Container) ManualService() (*manual.Service, error) {
	var err error
	c.manualServiceInit.Do(func() {
		var client *api.Client
		client, err = c.APIClient()
		if err != nil {
			c.initErrors["manualService"] = err
			return
		}
		c.manualService = manual.NewService(client, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["manualService"]; exists {
		return nil, storedErr
	}
	return c.manualService, nil
}

// DirectoryService returns the user and site directory service.
func (c *Container) DirectoryService() (*directory.Service, error) {
	var err error
	c.directoryServiceInit.Do(func() {
		var client *api.Client
		client, err = c.APIClient()
		if err != nil {
			c.initErrors["directoryService"] = err
			return
		}
		c.directoryService = directory.NewService(client, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["directoryService"]; exists {
		return nil, storedErr
	}
	return c.directoryService, nil
}

// AuditService returns the audit trail service.
func (c *Container) AuditService() (*audit.Service, error) {
	var err error
	c.auditServiceInit.Do(func() {
		var client *api.Client
		client, err = c.APIClient()
		if err != nil {
			c.initErrors["auditService"] = err
			return
		}
		c.auditService = audit.NewService(client)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditService"]; exists {
		return nil, storedErr
	}
	return c.auditService, nil
}

// SummaryService returns the overview fan-out service.
func (c *Container) SummaryService() (*summary.Service, error) {
	var err error
	c.summaryServiceInit.Do(func() {
		var attendanceService *attendance.Service
		var manualService *manual.Service
		attendanceService, err = c.AttendanceService()
		if err == nil {
			manualService, err = c.ManualService()
		}
		if err != nil {
			c.initErrors["summaryService"] = err
			return
		}
		c.summaryService = summary.NewService(attendanceService, attendanceService, manualService)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["summaryService"]; exists {
		return nil, storedErr
	}
	return c.summaryService, nil
}

// VerifyFlow creates a fresh verification flow. Flows are stateful and
// single-use per sensitive action, so they are never cached.
func (c *Container) VerifyFlow() (*verify.Flow, error) {
	client, err := c.APIClient()
	if err != nil {
		return nil, err
	}
	clientMetrics, err := c.ClientMetrics()
	if err != nil {
		return nil, err
	}
	return verify.NewFlow(verify.NewExchanger(client),
		verify.WithTTL(c.config.RevealTTL),
		verify.WithMetrics(clientMetrics),
	), nil
}

// RevealSession creates a fresh reveal session wired to the configured
// countdown interval.
func (c *Container) RevealSession(opts ...reveal.SessionOption) (*reveal.Session, error) {
	clientMetrics, err := c.ClientMetrics()
	if err != nil {
		return nil, err
	}
	base := []reveal.SessionOption{
		reveal.WithInterval(c.config.CountdownInterval),
		reveal.WithMetrics(clientMetrics),
	}
	return reveal.NewSession(append(base, opts...)...), nil
}

// BadgePoller creates a pending-count poller delivering to onCount.
func (c *Container) BadgePoller(onCount func(int)) (*poll.Poller, error) {
	manualService, err := c.ManualService()
	if err != nil {
		return nil, err
	}
	return poll.NewPoller(manualService.PendingCount, onCount,
		poll.WithInterval(c.config.BadgePollInterval),
		poll.WithLogger(c.Logger()),
	), nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initClientMetrics creates the request instrumentation, backed by the
// metrics provider when enabled.
func (c *Container) initClientMetrics() (metrics.ClientMetrics, error) {
	if !c.config.MetricsEnabled {
		return metrics.NewNoOpClientMetrics(), nil
	}
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	return metrics.NewClientMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}

// initAPIClient creates the authenticated request client with the configured
// timeout, rate limiter, and instrumentation.
func (c *Container) initAPIClient() (*api.Client, error) {
	clientMetrics, err := c.ClientMetrics()
	if err != nil {
		return nil, err
	}

	opts := []api.Option{
		api.WithHTTPClient(&http.Client{Timeout: c.config.HTTPTimeout}),
		api.WithMetrics(clientMetrics),
		api.WithLogger(c.Logger()),
	}
	if c.config.RateLimitEnabled {
		limiter := rate.NewLimiter(rate.Limit(c.config.RateLimitRequestsPerSec), c.config.RateLimitBurst)
		opts = append(opts, api.WithRateLimiter(limiter))
	}

	return api.NewClient(c.config.APIBaseURL, c.SessionStore(), opts...), nil
}
