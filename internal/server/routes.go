package server

import (
	"net/http"

	_ "go-quotepdf/docs"
	"go-quotepdf/internal/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// RegisterRoutes returns the router for the quotation API. The PDF and
// preview routes sit behind the API key check and the rate limiter; the
// health check and the docs do not.
func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.Config.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", APIKeyHeader},
		ExposedHeaders: []string{"Content-Disposition"},
	}))
	r.With(localhostOnly).Get("/swagger/*", httpSwagger.WrapHandler)

	h := handlers.NewAPIHandler(s.Generator, s.Config.MaxBodyBytes, s.Logger.Named("handlers"))
	r.Get("/health", h.Health)
	r.Group(func(api chi.Router) {
		api.Use(requireAPIKey(s.Config.APIKey))
		api.Use(rateLimit(s.Config.RateLimitRPS, s.Config.RateLimitBurst))
		api.Post("/pdf/cotizacion", h.GenerateQuotation)
		api.Post("/html/cotizacion", h.PreviewQuotation)
	})

	return r
}
