package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/vkquanghd/gold-ai-advisor/internal/api/handlers"
	custommiddleware "github.com/vkquanghd/gold-ai-advisor/internal/api/middleware"
	"github.com/vkquanghd/gold-ai-advisor/internal/config"
	"github.com/vkquanghd/gold-ai-advisor/internal/service"
)

// Services bundles the services the router exposes.
type Services struct {
	System    *service.SystemService
	Query     *service.QueryService
	Retention *service.RetentionService
	Pipeline  *service.PipelineService
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(logger))
	r.Use(middleware.Recoverer)

	r.Use(custommiddleware.CORS(cfg.CORS.AllowedOrigins))

	requireKey := custommiddleware.APIKey(cfg.Security.InternalAPIKey)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System, logger)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		worldHandler := handlers.NewWorldHandler(svc.Query, logger)
		r.Route("/world", func(r chi.Router) {
			r.Get("/", worldHandler.World)
			r.Get("/coverage", worldHandler.WorldCoverage)
		})
		r.Route("/fx", func(r chi.Router) {
			r.Get("/", worldHandler.Fx)
			r.Get("/coverage", worldHandler.FxCoverage)
		})

		r.Route("/vn", func(r chi.Router) {
			vnHandler := handlers.NewVnHandler(svc.Query, svc.Retention, logger)
			r.Get("/", vnHandler.Quotes)
			r.Get("/brands", vnHandler.Brands)
			r.Get("/coverage", vnHandler.Coverage)
			r.With(requireKey).Post("/", vnHandler.CreateQuote)
			r.With(requireKey).Delete("/", vnHandler.DeleteRange)
		})

		r.Route("/pipeline", func(r chi.Router) {
			pipelineHandler := handlers.NewPipelineHandler(svc.Pipeline, svc.Query, logger)
			r.Get("/runs", pipelineHandler.Runs)
			r.With(custommiddleware.UUIDParam(custommiddleware.RunIDParam)).Get("/runs/{runID}", pipelineHandler.GetRun)
			r.With(requireKey).Post("/{pipeline}", pipelineHandler.Run)
		})
	})

	return r
}
