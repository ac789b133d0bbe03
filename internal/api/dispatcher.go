package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// ProduceFunc computes the text of a deferred response.
type ProduceFunc func(ctx context.Context) string

// Dispatcher runs slash-command work after the triggering request has been
// acknowledged and POSTs the result to the caller's response URL. Failures
// are only logged.
type Dispatcher struct {
	client *http.Client
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher whose callback POSTs time out after
// timeout.
func NewDispatcher(timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Go schedules produce and delivery of its result to responseURL.
// The work is detached from any request context and is not cancelled.
func (d *Dispatcher) Go(ctx context.Context, responseURL string, produce ProduceFunc) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("dispatch: panic recovered",
					slog.String("response_url", responseURL),
					slog.Any("panic", r))
			}
		}()

		start := time.Now()
		text := produce(ctx)
		if err := d.post(ctx, responseURL, text); err != nil {
			d.logger.Warn("dispatch: callback failed",
				slog.String("response_url", responseURL),
				slog.String("error", err.Error()))
			return
		}
		d.logger.Debug("dispatch: callback delivered",
			slog.String("response_url", responseURL),
			slog.Duration("elapsed", time.Since(start)))
	}()
}

// Wait blocks until all scheduled work has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) post(ctx context.Context, responseURL, text string) error {
	body, err := json.Marshal(SlackResponse{ResponseType: ResponseTypeEphemeral, Text: text})
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, responseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
