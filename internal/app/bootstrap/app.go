// Package bootstrap wires configuration into the running quotation bot.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/hotel-quote-bot/internal/admission"
	"github.com/wolfman30/hotel-quote-bot/internal/api/router"
	appconfig "github.com/wolfman30/hotel-quote-bot/internal/config"
	"github.com/wolfman30/hotel-quote-bot/internal/http/handlers"
	"github.com/wolfman30/hotel-quote-bot/internal/observability/metrics"
	"github.com/wolfman30/hotel-quote-bot/internal/quotepdf"
	"github.com/wolfman30/hotel-quote-bot/internal/quoting"
	"github.com/wolfman30/hotel-quote-bot/internal/relay"
	"github.com/wolfman30/hotel-quote-bot/pkg/logging"
)

// App is the wired server.
type App struct {
	Handler   http.Handler
	Admission *admission.Controller
	Quotes    *quoting.Service
	Metrics   *metrics.BotMetrics

	redis *redis.Client
}

// Options overrides collaborators, mostly for tests.
type Options struct {
	Messenger quoting.Messenger
	Registry  *prometheus.Registry
}

// Build validates cfg and assembles the HTTP handler and its services.
func Build(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, opts Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rates, err := cfg.Rates()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	botMetrics := metrics.NewBotMetrics(reg)

	messenger := opts.Messenger
	if messenger == nil {
		client, err := relay.New(relay.Config{
			BaseURL: cfg.EvolutionAPIBase,
			APIKey:  cfg.EvolutionAPIKey,
			Logger:  logger.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("bootstrap: relay client: %w", err)
		}
		messenger = client
	}

	redisClient := BuildRedisClient(ctx, cfg, logger, true)
	controller := admission.NewController(admission.Config{
		StaleAfter:        cfg.StaleMessageAfter,
		GroupWindow:       cfg.GroupingWindow,
		GraceWindow:       cfg.CloseGraceWindow,
		InactivityTimeout: cfg.ConversationTTL,
	}, BuildProcessedIDs(redisClient, cfg), logger)

	quotes := quoting.NewService(quoting.Config{
		Messenger:         messenger,
		Renderer:          quotepdf.NewRenderer(cfg.Hotel()),
		Conversations:     controller,
		Rates:             rates,
		ComposingDuration: cfg.ComposingDuration,
		DocumentDelay:     cfg.DocumentDelay,
		Location:          loc,
		Logger:            logger,
		Metrics:           botMetrics,
	})

	webhook := handlers.NewWebhookHandler(handlers.WebhookConfig{
		Token:            cfg.WebhookToken,
		AuthorizedNumber: cfg.AuthorizedNumber,
		Admission:        controller,
		Quotes:           quotes,
		Logger:           logger,
		Metrics:          botMetrics,
	})

	handler := router.New(&router.Config{
		Logger:           logger,
		Webhook:          webhook,
		MetricsHandler:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		WebhookRateLimit: cfg.WebhookRateLimit,
		WebhookRateBurst: cfg.WebhookRateBurst,
	})

	return &App{
		Handler:   handler,
		Admission: controller,
		Quotes:    quotes,
		Metrics:   botMetrics,
		redis:     redisClient,
	}, nil
}

// Close releases the Redis connection, if any.
func (a *App) Close() error {
	if a == nil || a.redis == nil {
		return nil
	}
	return a.redis.Close()
}
