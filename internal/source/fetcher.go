package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/starford/oxmenu/internal/apperr"
	"github.com/starford/oxmenu/internal/checksum"
	"github.com/starford/oxmenu/internal/storage"
)

// DefaultMaxBytes caps the size of a downloaded document.
const DefaultMaxBytes = 20 << 20

// Document is a successfully downloaded candidate.
type Document struct {
	URL      string
	Index    int // position of URL in the candidate list
	Body     []byte
	Checksum string
}

// Fetcher downloads the first reachable candidate. Candidates are tried
// strictly in order, one attempt each.
type Fetcher struct {
	client   *http.Client
	mirror   storage.Provider
	maxBytes int64
	logger   *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets the client used for http(s) candidates.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

// WithMirror serves file:// candidates from a local directory.
func WithMirror(p storage.Provider) FetcherOption {
	return func(f *Fetcher) { f.mirror = p }
}

// WithMaxBytes overrides DefaultMaxBytes.
func WithMaxBytes(n int64) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithLogger sets the logger used for per-attempt diagnostics.
func WithLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = l }
}

// NewFetcher creates a Fetcher. The default client times out after 15s.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{Timeout: 15 * time.Second},
		maxBytes: DefaultMaxBytes,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the first candidate that downloads successfully.
// Transport errors, non-2xx statuses and oversize bodies skip to the next
// candidate; when all fail the error wraps apperr.ErrNotFound.
func (f *Fetcher) Fetch(ctx context.Context, candidates []string) (*Document, error) {
	for i, raw := range candidates {
		body, err := f.get(ctx, raw)
		if err != nil {
			f.logger.Debug("fetch: candidate failed",
				slog.Int("index", i),
				slog.String("url", raw),
				slog.String("error", err.Error()))
			continue
		}
		doc := &Document{URL: raw, Index: i, Body: body, Checksum: checksum.Sum(body)}
		f.logger.Debug("fetch: candidate ok",
			slog.Int("index", i),
			slog.String("url", raw),
			slog.Int("bytes", len(body)),
			slog.String("checksum", doc.Checksum))
		return doc, nil
	}
	return nil, fmt.Errorf("source: %d candidates failed: %w", len(candidates), apperr.ErrNotFound)
}

func (f *Fetcher) get(ctx context.Context, raw string) ([]byte, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http", "https":
		return f.getHTTP(ctx, raw)
	case "file":
		if f.mirror == nil {
			return nil, errors.New("no mirror configured")
		}
		return f.mirror.Read(u.Path)
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}

func (f *Fetcher) getHTTP(ctx context.Context, raw string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("body exceeds %d bytes", f.maxBytes)
	}
	return body, nil
}
