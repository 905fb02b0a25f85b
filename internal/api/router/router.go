package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/hotel-quote-bot/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/hotel-quote-bot/internal/http/middleware"
	"github.com/wolfman30/hotel-quote-bot/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	Webhook        *handlers.WebhookHandler
	MetricsHandler http.Handler

	// Per-IP limit on the webhook route; zero disables it.
	WebhookRateLimit float64
	WebhookRateBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", handlers.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.Webhook != nil {
		r.With(httpmiddleware.RateLimit(cfg.WebhookRateLimit, cfg.WebhookRateBurst)).
			Post("/webhook", cfg.Webhook.Handle)
	}

	return r
}
