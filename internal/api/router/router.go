package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mchlbschmdt/ai-concierge/internal/conversation"
	httpmiddleware "github.com/mchlbschmdt/ai-concierge/internal/http/middleware"
	"github.com/mchlbschmdt/ai-concierge/internal/messaging"
	"github.com/mchlbschmdt/ai-concierge/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	MessagingHandler    *messaging.Handler
	ConversationHandler *conversation.Handler
	MetricsHandler      http.Handler

	// AdminToken protects /api routes; empty disables the check.
	AdminToken string

	// Per-sender webhook limit. Zero disables it.
	WebhookRatePerSecond float64
	WebhookBurst         int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	// Public endpoints (webhooks, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/health", cfg.MessagingHandler.HealthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		public.Route("/messaging", func(r chi.Router) {
			if cfg.WebhookRatePerSecond > 0 && cfg.WebhookBurst > 0 {
				r.Use(httpmiddleware.RateLimit(cfg.WebhookRatePerSecond, cfg.WebhookBurst, httpmiddleware.ByFormValue("From")))
			}
			r.Post("/twilio/webhook", cfg.MessagingHandler.TwilioWebhook)
		})
	})

	if cfg.ConversationHandler != nil {
		r.Route("/api/conversations", func(api chi.Router) {
			api.Use(requireAdminToken(cfg.AdminToken))
			api.Post("/process", cfg.ConversationHandler.Process)
			api.Get("/{phone}/transcript", cfg.ConversationHandler.Transcript)
		})
	}

	return r
}
