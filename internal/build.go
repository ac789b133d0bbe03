package internal

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/starford/oxmenu/internal/calendar"
	"github.com/starford/oxmenu/internal/daymenu"
	"github.com/starford/oxmenu/internal/extract"
	"github.com/starford/oxmenu/internal/menucache"
	"github.com/starford/oxmenu/internal/menuservice"
	"github.com/starford/oxmenu/internal/source"
	"github.com/starford/oxmenu/internal/storage"
)

var errConfigRequired = errors.New("config is required")

// NewLogger creates the JSON logger used by every command. A nil writer
// means stdout.
func NewLogger(cfg *Config, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

// Menu bundles the pipeline with its cache.
type Menu struct {
	Service *menuservice.Service
	Cache   *menucache.Cache
}

// BuildMenu assembles the menu pipeline from configuration.
func BuildMenu(cfg *Config, logger *slog.Logger) (*Menu, error) {
	loc, err := cfg.Menu.Location()
	if err != nil {
		return nil, err
	}

	candidates, err := source.NewCandidates(cfg.Menu.BaseURL, cfg.Menu.Candidates)
	if err != nil {
		return nil, fmt.Errorf("init candidates: %w", err)
	}

	fetchOpts := []source.FetcherOption{
		source.WithHTTPClient(&http.Client{Timeout: cfg.Menu.FetchTimeout}),
		source.WithMaxBytes(cfg.Menu.MaxBytes),
		source.WithLogger(logger),
	}
	if cfg.Menu.MirrorDir != "" {
		mirror, err := storage.NewFS(cfg.Menu.MirrorDir)
		if err != nil {
			return nil, fmt.Errorf("init mirror: %w", err)
		}
		fetchOpts = append(fetchOpts, source.WithMirror(mirror))
	}

	extractor, err := extract.New(cfg.Extractor.Kind, cfg.Extractor.PDFToTextPath, cfg.Extractor.Timeout)
	if err != nil {
		return nil, fmt.Errorf("init extractor: %w", err)
	}

	cache := menucache.New()
	svc := menuservice.NewService(menuservice.Deps{
		Resolver:   calendar.NewResolver(calendar.NaturalParser{Languages: cfg.Menu.Languages}, loc),
		Candidates: candidates,
		Fetcher:    source.NewFetcher(fetchOpts...),
		Extractor:  extractor,
		Days:       daymenu.New(cfg.Menu.Footer),
		Cache:      cache,
		Logger:     logger,
	})
	return &Menu{Service: svc, Cache: cache}, nil
}
