package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/starford/oxmenu/internal/apperr"
	"github.com/starford/oxmenu/internal/menucache"
	"github.com/starford/oxmenu/internal/menuservice"
)

const maxFormBytes = 64 << 10

// MenuService is the pipeline the handlers drive.
type MenuService interface {
	Resolve(ctx context.Context, text string, now time.Time) string
	Lookup(ctx context.Context, text string, now time.Time) (*menuservice.DayMenu, error)
	ResetCache() int
	CachedWeeks() []menucache.KeyedEntry
}

// Handler holds API route handlers.
type Handler struct {
	svc        MenuService
	dispatcher *Dispatcher
	slack      Auth
	onReset    func(dropped int)
	now        func() time.Time
}

// NewHandler creates a new Handler.
func NewHandler(svc MenuService, dispatcher *Dispatcher, slack Auth) *Handler {
	return &Handler{
		svc:        svc,
		dispatcher: dispatcher,
		slack:      slack,
		now:        time.Now,
	}
}

// SlashCommand handles POST /slack/command.
//
// The request is acknowledged immediately; the menu is resolved in the
// background and delivered to response_url.
func (h *Handler) SlashCommand(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	if !h.slack.Allows(r.PostForm.Get("token")) {
		slog.Warn("slack: rejected command", slog.String("error", apperr.ErrUnauthorized.Error()))
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	responseURL := r.PostForm.Get("response_url")
	if responseURL == "" {
		writeError(w, http.StatusBadRequest, "response_url is required")
		return
	}
	if u, err := url.Parse(responseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		writeError(w, http.StatusBadRequest, "response_url must be an absolute http(s) URL")
		return
	}

	text := r.PostForm.Get("text")
	now := h.now()
	h.dispatcher.Go(r.Context(), responseURL, func(ctx context.Context) string {
		return h.svc.Resolve(ctx, text, now)
	})

	w.WriteHeader(http.StatusOK)
}

// GetMenu handles GET /api/menu?date=...
func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Lookup(r.Context(), r.URL.Query().Get("date"), h.now())
	if err == nil {
		writeJSON(w, http.StatusOK, menuResponse(m))
		return
	}

	switch {
	case errors.Is(err, apperr.ErrDateParse):
		writeJSON(w, http.StatusUnprocessableEntity, MenuResponse{Text: menuservice.MsgDateParse})
	case errors.Is(err, apperr.ErrMenuUnavailable):
		writeJSON(w, http.StatusNotFound, MenuResponse{Text: menuservice.MsgUnavailable})
	default:
		slog.Error("menu lookup failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// ListCache handles GET /api/cache.
func (h *Handler) ListCache(w http.ResponseWriter, r *http.Request) {
	weeks := h.svc.CachedWeeks()
	writeJSON(w, http.StatusOK, CacheResponse{Weeks: weeks, Total: len(weeks)})
}

// ResetCache handles POST /api/cache/reset.
func (h *Handler) ResetCache(w http.ResponseWriter, r *http.Request) {
	n := h.svc.ResetCache()
	slog.Info("cache reset", slog.Int("dropped", n))
	if h.onReset != nil {
		h.onReset(n)
	}
	writeJSON(w, http.StatusOK, ResetResponse{Dropped: n})
}
