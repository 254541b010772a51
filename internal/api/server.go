package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	askapi "github.com/tiledocs/agent-backend/internal/api/ask"
	"github.com/tiledocs/agent-backend/internal/api/docs"
	"github.com/tiledocs/agent-backend/internal/api/middleware"
	"github.com/tiledocs/agent-backend/internal/pkg/ratelimit"
)

// SetupRouter creates and configures the HTTP router. The request gate
// (bearer auth, then rate limiting) guards everything under /api; health,
// root info and the Swagger UI stay open.
func SetupRouter(askHandler *askapi.Handler, bearerToken string, limiter *ratelimit.Limiter, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)                 // Recover from panics
	r.Use(chimiddleware.RequestID)                 // Add request ID
	r.Use(chimiddleware.RealIP)                    // Client IP behind proxies
	r.Use(middleware.Logger(logger))               // Log requests
	r.Use(middleware.CORS)                         // Handle CORS
	r.Use(chimiddleware.Timeout(60 * time.Second)) // Default timeout

	// Root endpoint with API information
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"name":"Tiled Documentation Agent API","version":"1.0.0","status":"operational"}`))
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	// Gated API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.BearerAuth(bearerToken))
		r.Use(middleware.RateLimit(limiter))
		askapi.RegisterRoutes(r, askHandler)
	})

	return r
}
