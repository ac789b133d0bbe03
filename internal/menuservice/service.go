// Package menuservice resolves a free-text date into that day's lunch menu.
package menuservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/oxmenu/internal/apperr"
	"github.com/starford/oxmenu/internal/calendar"
	"github.com/starford/oxmenu/internal/checksum"
	"github.com/starford/oxmenu/internal/daymenu"
	"github.com/starford/oxmenu/internal/extract"
	"github.com/starford/oxmenu/internal/menucache"
	"github.com/starford/oxmenu/internal/models"
	"github.com/starford/oxmenu/internal/source"
)

// User-facing results for the two failure kinds.
const (
	MsgDateParse   = "Couldn't parse the input date."
	MsgUnavailable = "There's no menu available for the given date."
)

// Fetcher downloads the first reachable candidate URL.
type Fetcher interface {
	Fetch(ctx context.Context, candidates []string) (*source.Document, error)
}

// DayMenu is a resolved day entry.
type DayMenu struct {
	Point models.CalendarPoint `json:"point"`
	Text  string               `json:"text"`
	URL   string               `json:"url"`
}

// Service composes date resolution, document fetch, extraction, caching
// and day isolation.
type Service struct {
	resolver   *calendar.Resolver
	candidates *source.Candidates
	fetcher    Fetcher
	extractor  extract.Extractor
	days       *daymenu.Extractor
	cache      *menucache.Cache
	logger     *slog.Logger
}

// Deps are the collaborators of a Service.
type Deps struct {
	Resolver   *calendar.Resolver
	Candidates *source.Candidates
	Fetcher    Fetcher
	Extractor  extract.Extractor
	Days       *daymenu.Extractor
	Cache      *menucache.Cache
	Logger     *slog.Logger
}

// NewService creates a new menu service. A nil Cache, Days or Logger gets
// a default.
func NewService(d Deps) *Service {
	if d.Cache == nil {
		d.Cache = menucache.New()
	}
	if d.Days == nil {
		d.Days = daymenu.New("")
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Service{
		resolver:   d.Resolver,
		candidates: d.Candidates,
		fetcher:    d.Fetcher,
		extractor:  d.Extractor,
		days:       d.Days,
		cache:      d.Cache,
		logger:     d.Logger,
	}
}

// Resolve returns the menu text for the day described by text, or one of
// MsgDateParse and MsgUnavailable. It never fails.
func (s *Service) Resolve(ctx context.Context, text string, now time.Time) string {
	menu, err := s.Lookup(ctx, text, now)
	return Message(menu, err)
}

// Message renders a Lookup result as user-facing text.
func Message(menu *DayMenu, err error) string {
	switch {
	case err == nil && menu != nil:
		return menu.Text
	case errors.Is(err, apperr.ErrDateParse):
		return MsgDateParse
	default:
		return MsgUnavailable
	}
}

// Lookup resolves text to a DayMenu. Errors wrap apperr.ErrDateParse or
// apperr.ErrMenuUnavailable.
func (s *Service) Lookup(ctx context.Context, text string, now time.Time) (menu *DayMenu, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("menu: panic recovered", slog.Any("panic", r))
			menu, err = nil, fmt.Errorf("menu: internal failure: %w", apperr.ErrMenuUnavailable)
		}
	}()

	point, err := s.resolver.Resolve(text, now)
	if err != nil {
		s.logger.Info("menu: date not understood", slog.String("text", text), slog.String("error", err.Error()))
		return nil, err
	}
	key := point.Key()

	// The stored entry outlives this caller, so loading must not observe its
	// cancellation or a dropped request would cache the week as unavailable.
	entry := s.cache.GetOrCompute(context.WithoutCancel(ctx), key, func(ctx context.Context) menucache.Entry {
		return s.loadWeek(ctx, key)
	})
	if !entry.Found {
		return nil, fmt.Errorf("menu: week %s: %w", key, apperr.ErrMenuUnavailable)
	}

	day, err := s.days.Extract(entry.Text, point.Day)
	if err != nil {
		s.logger.Info("menu: day not in week document",
			slog.String("week", key.String()),
			slog.Int("day", point.Day),
			slog.String("source", entry.Source))
		return nil, fmt.Errorf("menu: %w: %w", apperr.ErrMenuUnavailable, err)
	}
	return &DayMenu{Point: point, Text: day, URL: entry.Source}, nil
}

// loadWeek walks the candidate list. A document that downloads but cannot
// be decoded does not end the search; fetching resumes after it.
func (s *Service) loadWeek(ctx context.Context, key models.WeekKey) menucache.Entry {
	urls, err := s.candidates.Build(key)
	if err != nil {
		s.logger.Error("menu: build candidates failed", slog.String("week", key.String()), slog.String("error", err.Error()))
		return menucache.Entry{}
	}

	for remaining := urls; len(remaining) > 0; {
		doc, err := s.fetcher.Fetch(ctx, remaining)
		if err != nil {
			s.logger.Info("menu: no document published",
				slog.String("week", key.String()),
				slog.Int("candidates", len(urls)))
			return menucache.Entry{}
		}

		text, err := s.extractor.Extract(ctx, doc.Body)
		if err != nil {
			s.logger.Warn("menu: document could not be decoded",
				slog.String("week", key.String()),
				slog.String("url", doc.URL),
				slog.String("checksum", checksum.Short(doc.Checksum)),
				slog.String("error", err.Error()))
			remaining = remaining[doc.Index+1:]
			continue
		}

		s.logger.Info("menu: week loaded",
			slog.String("week", key.String()),
			slog.String("url", doc.URL),
			slog.String("checksum", checksum.Short(doc.Checksum)))
		return menucache.Entry{Text: text, Found: true, Source: doc.URL, Checksum: doc.Checksum}
	}

	s.logger.Info("menu: no decodable document", slog.String("week", key.String()))
	return menucache.Entry{}
}

// ResetCache drops all memoized weeks and returns how many were dropped.
func (s *Service) ResetCache() int {
	n := s.cache.Reset()
	s.logger.Info("menu: cache reset", slog.Int("dropped", n))
	return n
}

// CachedWeeks returns a snapshot of the cache.
func (s *Service) CachedWeeks() []menucache.KeyedEntry {
	return s.cache.Entries()
}

// Candidates resolves text to a week and returns the URLs that would be
// tried for it, in order.
func (s *Service) Candidates(text string, now time.Time) (models.WeekKey, []string, error) {
	point, err := s.resolver.Resolve(text, now)
	if err != nil {
		return models.WeekKey{}, nil, err
	}
	key := point.Key()
	urls, err := s.candidates.Build(key)
	if err != nil {
		return key, nil, err
	}
	return key, urls, nil
}
