package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xavierca1/tork-crm/internal/infra/http/handlers"
	appmw "github.com/xavierca1/tork-crm/internal/infra/http/middleware"
)

type routes struct {
	Limiter *appmw.RateLimiter
	Webhook *handlers.ChatwootWebhookHandler
	Stages  *handlers.StageHandler
	Deals   *handlers.DealHandler
	Health  *handlers.HealthHandler
}

func newRouter(allowedOrigins []string, h routes, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(appmw.RequestLogger(logger.Named("http")))
	r.Use(chimw.Recoverer)
	r.Use(appmw.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	// O Chatwoot tem timeout próprio; não deixamos um request travar o servidor.
	r.With(h.Limiter.Limit, chimw.Timeout(15*time.Second)).Post("/webhooks/chatwoot", h.Webhook.Handle)

	r.Route("/crm", func(r chi.Router) {
		r.Get("/stages", h.Stages.List)
		r.Post("/stages", h.Stages.Create)
		r.Patch("/stages/{id}", h.Stages.Update)
		r.Delete("/stages/{id}", h.Stages.Delete)

		r.Get("/leads/{id}", h.Deals.Get)
		r.Patch("/leads/{id}", h.Deals.Patch)
	})

	return r
}
