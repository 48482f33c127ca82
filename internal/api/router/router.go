package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/easyscale/clinic-ai-engine/internal/engine"
	httpmiddleware "github.com/easyscale/clinic-ai-engine/internal/http/middleware"
	"github.com/easyscale/clinic-ai-engine/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	EngineHandler      *engine.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.EngineHandler != nil {
		r.Route("/v1", func(v1 chi.Router) {
			v1.Post("/route", cfg.EngineHandler.Route)
			v1.Post("/reception/turn", cfg.EngineHandler.ReceptionTurn)
			v1.Post("/scheduling/turn", cfg.EngineHandler.SchedulingTurn)
			v1.Post("/reengage/compose", cfg.EngineHandler.Reengage)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
