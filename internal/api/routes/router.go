package routes

import (
	"net/http"

	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/api/handlers"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/api/middleware"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux            *http.ServeMux
	codingHandler  *handlers.CodingHandler
	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(codingHandler *handlers.CodingHandler, allowedOrigins []string, metrics *observability.Metrics) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		codingHandler:  codingHandler,
		allowedOrigins: allowedOrigins,
		metrics:        metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// ICD-11 terminology
	r.mux.HandleFunc("GET /api/icd/search", r.codingHandler.SearchICD)
	r.mux.HandleFunc("POST /api/icd/map", r.codingHandler.MapConditions)

	// openFDA treatments
	r.mux.HandleFunc("GET /api/treatments", r.codingHandler.LookupTreatments)

	// Full pipeline
	r.mux.HandleFunc("POST /api/coding", r.codingHandler.RunCoding)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Compression(handler)
	handler = middleware.CORS(r.allowedOrigins)(handler)

	return handler
}
