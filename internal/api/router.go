package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hackgods/conversational-booking/internal/metrics"
	"github.com/hackgods/conversational-booking/internal/qa"
)

type RouterConfig struct {
	Sessions    SessionService
	Documents   qa.DocumentStore
	Bookings    BookingLookup
	RateLimiter *SessionRateLimiter
	Postgres    Pinger
	Redis       Pinger
	Metrics     *metrics.Metrics
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	Logger         *zap.Logger
	Env            string
	Version        string
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	h := &handlers{
		sessions:  cfg.Sessions,
		documents: cfg.Documents,
		bookings:  cfg.Bookings,
		logger:    log,
	}

	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(log, cfg.Metrics))

	// Health endpoints
	health := NewHealthHandler(cfg.Postgres, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// Conversation endpoints
	r.Post("/sessions", h.createSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.getSession)
		r.Delete("/", h.endSession)
		r.With(cfg.RateLimiter.Middleware).Post("/messages", h.sendMessage)
		r.Delete("/form", h.resetForm)
	})

	r.Post("/documents", h.uploadDocument)
	r.Get("/status", h.status)

	if cfg.Bookings != nil {
		r.Get("/bookings/{id}", h.getBooking)
	}

	return r
}
