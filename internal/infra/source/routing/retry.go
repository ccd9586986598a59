// Package routing handles retries against one source and ordered failover
// across the configured source list.
package routing

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/vietddude/seqfetch/internal/core/domain"
	"github.com/vietddude/seqfetch/internal/infra/source/provider"
	"github.com/vietddude/seqfetch/internal/metrics"
)

// RetryConfig defines retry behavior for a single source.
type RetryConfig struct {
	// Retries is the number of attempts after the first one.
	Retries int

	// BackoffBase is raised to the retry index to get the wait in Units.
	BackoffBase float64

	// Unit is the duration of one backoff unit.
	Unit time.Duration
}

// DefaultRetryConfig: 3 attempts, waits of 1s then 1.5s.
var DefaultRetryConfig = RetryConfig{
	Retries:     2,
	BackoffBase: 1.5,
	Unit:        time.Second,
}

// Attempts returns the total number of attempts per source.
func (c RetryConfig) Attempts() int {
	if c.Retries < 0 {
		return 1
	}
	return c.Retries + 1
}

// Backoff returns the wait before retry number attempt+1. attempt starts at 0,
// so the first retry waits exactly one Unit.
func (c RetryConfig) Backoff(attempt int) time.Duration {
	return time.Duration(float64(c.Unit) * math.Pow(c.BackoffBase, float64(attempt)))
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Fetcher runs the retry policy and failover over a prober.
type Fetcher struct {
	Probe  provider.Prober
	Config RetryConfig
	Sleep  SleepFunc
	Logger *slog.Logger
}

// NewFetcher creates a Fetcher with the default sleep function.
func NewFetcher(p provider.Prober, cfg RetryConfig) *Fetcher {
	return &Fetcher{Probe: p, Config: cfg, Sleep: Sleep, Logger: slog.Default()}
}

// FetchWithRetry probes one endpoint for id until a valid record arrives or
// the attempts are used up. A miss is reported as false, never as an error.
func (f *Fetcher) FetchWithRetry(
	ctx context.Context,
	ep provider.Endpoint,
	id domain.ItemID,
) (provider.Result, bool) {
	url := ep.URL(id)
	attempts := f.Config.Attempts()

	var last provider.Result
	for attempt := 0; attempt < attempts; attempt++ {
		last = f.Probe.Probe(ctx, ep.Name, url)
		if last.Valid() {
			return last, true
		}

		f.logger().Debug("Source attempt missed",
			"source", ep.Name,
			"id", id,
			"attempt", attempt+1,
			"class", last.Class.String(),
			"error", last.Err,
		)

		if attempt == attempts-1 {
			break
		}

		metrics.RetriesTotal.WithLabelValues(ep.Name).Inc()
		if err := f.sleep(ctx, f.Config.Backoff(attempt)); err != nil {
			return last, false
		}
	}
	return last, false
}

// FetchFirst tries endpoints in order and returns the first valid record.
// Later endpoints are never contacted once one succeeds.
func (f *Fetcher) FetchFirst(
	ctx context.Context,
	endpoints []provider.Endpoint,
	id domain.ItemID,
) (string, provider.Result, bool) {
	var last provider.Result
	for _, ep := range endpoints {
		if ctx.Err() != nil {
			break
		}
		res, ok := f.FetchWithRetry(ctx, ep, id)
		if ok {
			return ep.Name, res, true
		}
		last = res
	}
	return "", last, false
}

func (f *Fetcher) sleep(ctx context.Context, d time.Duration) error {
	if f.Sleep == nil {
		return Sleep(ctx, d)
	}
	return f.Sleep(ctx, d)
}

func (f *Fetcher) logger() *slog.Logger {
	if f.Logger == nil {
		return slog.Default()
	}
	return f.Logger
}
