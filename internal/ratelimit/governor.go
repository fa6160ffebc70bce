// Package ratelimit implements the harvester's rate governor: a single
// shared burst limiter with an exponential-backoff retry loop wrapping
// every outbound GET.
package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"searxiv/internal/errs"
)

// userAgent is the fixed User-Agent sent on every outbound request.
const userAgent = "Googlebot"

const (
	// DefaultBurstSize is how many requests may depart per window.
	DefaultBurstSize = 4
	// DefaultBurstWindow is the rolling window length.
	DefaultBurstWindow = time.Second
)

// Governor enforces "at most B requests depart in any rolling W" across
// every caller sharing this instance, and retries transport failures
// with doubling backoff. One instance is shared by all Harvester tasks.
type Governor struct {
	mu          sync.Mutex
	burstSize   int
	window      time.Duration
	count       int
	lastRequest time.Time

	client   *http.Client
	backoff  errs.BackoffConfig
	logger   *slog.Logger
	requests atomic.Int64
}

// requestTimeout bounds each individual GET attempt. The retry loop
// still recovers from transport errors indefinitely; the timeout only
// turns a hung connection into a retryable failure.
const requestTimeout = 30 * time.Second

// New creates a Governor with the given burst parameters.
func New(burstSize int, window time.Duration, logger *slog.Logger) *Governor {
	return &Governor{
		burstSize: burstSize,
		window:    window,
		client:    &http.Client{Timeout: requestTimeout},
		backoff:   errs.DefaultBackoff(),
		logger:    logger,
	}
}

// Requests reports how many GET attempts have departed through this
// governor, retries included.
func (g *Governor) Requests() int64 {
	return g.requests.Load()
}

// acquire blocks the caller until it is that caller's turn to depart,
// enforcing the burst/window contract. The mutex is held across the
// accounting (including any sleep it decides on) but never across the
// HTTP call itself, which runs after acquire returns.
func (g *Governor) acquire() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	if g.count >= g.burstSize {
		wait := g.window - now.Sub(g.lastRequest)
		if wait > 0 {
			time.Sleep(wait)
			now = time.Now()
		}
		g.count = 0
	}
	g.count++
	g.lastRequest = now
}

// Get issues a GET to url, retrying transport-layer failures only (HTTP
// status codes are not inspected) with exponential backoff.
// The burst gate is re-acquired on every attempt, including retries.
func (g *Governor) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.New(errs.Network, "ratelimit.Get", err)
	}
	req.Header.Set("User-Agent", userAgent)

	var body []byte
	err = errs.Retry(ctx, g.backoff, func() error {
		g.acquire()
		g.requests.Add(1)

		resp, err := g.client.Do(req)
		if err != nil {
			g.logger.Warn("transport failure, will retry", slog.String("url", url), slog.String("error", err.Error()))
			return errs.New(errs.Network, "ratelimit.Get", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return errs.New(errs.Network, "ratelimit.Get", err)
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
