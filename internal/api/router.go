package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kimballen/acre-Intrusion/internal/auth"
)

// Rate limiter route labels.
const (
	routeUnlock = "unlock"
	routeAlarm  = "alarm"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Get("/metrics", s.handleMetrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get(s.wsPath(), s.handleWebSocket)

		r.Route("/setup", func(r chi.Router) {
			r.Get("/status", s.handleSetupStatus)
			r.Post("/admin", s.handleSetupAdmin)
			r.With(s.pinRateLimit(routeUnlock)).Post("/unlock", s.handleUnlock)

			r.With(s.sessionMiddleware, requirePermission(auth.PermAdminChange)).
				Put("/admin", s.handleChangeAdminPIN)
		})

		r.Route("/areas", func(r chi.Router) {
			r.Get("/", s.handleListAreas)
			r.Get("/{id}", s.handleGetArea)
			r.With(s.pinRateLimit(routeAlarm)).Post("/{id}/{action}", s.handleAreaAction)
		})

		// Installer session routes
		r.Group(func(r chi.Router) {
			r.Use(s.sessionMiddleware)

			r.Route("/users", func(r chi.Router) {
				r.Use(requirePermission(auth.PermCredentialsManage))
				r.Get("/", s.handleListUsers)
				r.Post("/", s.handleCreateUser)
				r.Put("/{name}", s.handleUpdateUser)
				r.Delete("/{name}", s.handleDeleteUser)
			})

			r.With(requirePermission(auth.PermAuditRead)).Get("/audit", s.handleListAudit)
		})
	})

	return r
}

// wsPath is the WebSocket route under /api/v1.
func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}
