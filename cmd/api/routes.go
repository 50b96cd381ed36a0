package main

import (
	"net/http"

	"github.com/rs/zerolog"

	"mrk/internal/shared/config"
	"mrk/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", deps.HealthHandler.HandleHealth)

	// Public auth routes
	mux.Handle("POST /api/auth/login", deps.LoginLimiter.Limit(http.HandlerFunc(deps.AuthHandler.HandleLogin)))
	mux.HandleFunc("POST /api/auth/logout", deps.AuthHandler.HandleLogout)

	// Protected routes
	authMiddleware := middleware.Auth(deps.JWT)
	protect := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(h)
	}
	throttled := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(deps.UploadLimiter.Limit(h))
	}

	mux.Handle("GET /api/auth/me", protect(deps.AuthHandler.HandleMe))

	mux.Handle("POST /api/ofx/preview", throttled(deps.StatementHandler.HandlePreview))
	mux.Handle("POST /api/ofx/upload", throttled(deps.StatementHandler.HandleUpload))
	mux.Handle("GET /api/ofx/transactions", protect(deps.StatementHandler.HandleListTransactions))
	mux.Handle("PUT /api/ofx/transactions/{id}/associate", protect(deps.StatementHandler.HandleAssociate))
	mux.Handle("POST /api/ofx/auto-match", protect(deps.StatementHandler.HandleAutoMatch))
	mux.Handle("POST /api/ofx/validate", protect(deps.StatementHandler.HandleValidate))

	mux.Handle("GET /api/projects", protect(deps.ProjectHandler.HandleList))
	mux.Handle("GET /api/projects/counts", protect(deps.ProjectHandler.HandleCounts))
	mux.Handle("GET /api/projects/{code}", protect(deps.ProjectHandler.HandleGet))

	// Apply global middleware
	handler := middleware.Tracing(mux)
	handler = middleware.CORS(cfg.Server.AllowedHosts)(handler)
	handler = middleware.Logging(log)(handler)

	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(cfg.Telemetry.ServiceName)(handler)
	}

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(middleware.SecureCookies(handler))
		log.Info().Msg("TLS security middleware enabled (HSTS + SecureCookies)")
	}

	return handler
}
