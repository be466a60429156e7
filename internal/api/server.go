package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kimballen/acre-Intrusion/internal/alarm"
	"github.com/kimballen/acre-Intrusion/internal/audit"
	"github.com/kimballen/acre-Intrusion/internal/auth"
	"github.com/kimballen/acre-Intrusion/internal/infrastructure/config"
	"github.com/kimballen/acre-Intrusion/internal/infrastructure/logging"
	"github.com/kimballen/acre-Intrusion/internal/infrastructure/metrics"
	"github.com/kimballen/acre-Intrusion/internal/setup"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker is implemented by every infrastructure client the health
// endpoint reports on.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	WS         config.WebSocketConfig
	Security   config.SecurityConfig
	Panel      config.PanelConfig
	Logger     *logging.Logger
	Setup      *setup.Service
	Controller *alarm.Controller
	Areas      *alarm.Registry
	AuditRepo  audit.Repository        // optional: /audit returns 503 without it
	Metrics    *metrics.Metrics        // optional: /metrics returns 404 without it
	Health     map[string]HealthChecker // optional: reported by /health
	Version    string
}

// Server is the HTTP API server for Acre Intrusion Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	wsCfg      config.WebSocketConfig
	secCfg     config.SecurityConfig
	panelCfg   config.PanelConfig
	logger     *logging.Logger
	setup      *setup.Service
	controller *alarm.Controller
	areas      *alarm.Registry
	auditRepo  audit.Repository
	metrics    *metrics.Metrics
	health     map[string]HealthChecker
	limiter    *auth.PINLimiter
	version    string
	now        func() time.Time

	server *http.Server
	hub    *Hub
	cancel context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called. The WebSocket hub is
// created here and subscribed to the area registry, so area changes are
// broadcast as soon as clients connect.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Setup == nil {
		return nil, fmt.Errorf("setup service is required")
	}
	if deps.Controller == nil || deps.Areas == nil {
		return nil, fmt.Errorf("alarm controller and area registry are required")
	}

	logger := deps.Logger.With("component", "api")
	s := &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		secCfg:     deps.Security,
		panelCfg:   deps.Panel,
		logger:     logger,
		setup:      deps.Setup,
		controller: deps.Controller,
		areas:      deps.Areas,
		auditRepo:  deps.AuditRepo,
		metrics:    deps.Metrics,
		health:     deps.Health,
		version:    deps.Version,
		now:        time.Now,
		hub:        NewHub(deps.WS, logger, deps.Metrics),
	}

	if rl := deps.Security.PINRateLimit; rl.Enabled {
		s.limiter = auth.NewPINLimiter(rl.AttemptsPerMinute, rl.Burst, 0)
	}

	s.areas.Subscribe(func(a alarm.Area) {
		s.hub.Broadcast(ChannelAreaStateChanged, s.areaView(a))
	})
	s.hub.snapshot = s.channelSnapshot

	return s, nil
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
//
// Parameters:
//   - ctx: Parent context for the hub; cancelling it disconnects WebSocket clients
//
// Returns:
//   - error: Always nil; listener errors are logged
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS", "address", s.server.Addr, "cert", s.cfg.TLS.CertFile)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("api health check: %w", err)
	}
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}

// channelSnapshot returns the current state of every area for the area
// channel and nothing for any other channel.
func (s *Server) channelSnapshot(channel string) []any {
	if channel != ChannelAreaStateChanged {
		return nil
	}
	areas := s.areas.List()
	out := make([]any, 0, len(areas))
	for _, a := range areas {
		out = append(out, s.areaView(a))
	}
	return out
}
