package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// RouterConfig wires the handlers.
type RouterConfig struct {
	Service    MenuService
	Dispatcher *Dispatcher
	// Slack guards the slash-command webhook via its form token.
	Slack Auth
	// Admin guards /api via a Bearer token.
	Admin Auth
	// Events, if non-nil, is mounted at GET /api/events.
	Events http.Handler
	// OnReset is called after the cache was reset through the API.
	OnReset func(dropped int)
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// NewRouter creates a chi router with the webhook and admin routes.
func NewRouter(cfg RouterConfig) chi.Router {
	h := NewHandler(cfg.Service, cfg.Dispatcher, cfg.Slack)
	h.onReset = cfg.OnReset
	if cfg.Now != nil {
		h.now = cfg.Now
	}

	r := chi.NewRouter()

	r.Post("/slack/command", h.SlashCommand)

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Admin))

		r.Get("/menu", h.GetMenu)
		r.Get("/cache", h.ListCache)
		r.Post("/cache/reset", h.ResetCache)

		if cfg.Events != nil {
			r.Get("/events", cfg.Events.ServeHTTP)
		}
	})

	return r
}
