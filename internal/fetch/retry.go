package fetch

import (
	"context"
	"log/slog"
	"time"

	"github.com/cuzic/woc-download/internal/metrics"
	"github.com/cuzic/woc-download/internal/naming"
)

// RetryingFetcher wraps another fetcher with bounded exponential backoff.
// Only transient failures are retried; permanent failures return at once.
type RetryingFetcher struct {
	Inner       Fetcher
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Log         *slog.Logger
}

func (f *RetryingFetcher) Fetch(ctx context.Context, url, outputPath string, kind naming.URLType) (*Result, error) {
	attempts := f.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := f.BaseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := f.Inner.Fetch(ctx, url, outputPath, kind)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsTransient(err) {
			return nil, err
		}
		if attempt == attempts {
			break
		}

		f.Log.Warn("fetch failed, retrying",
			"url", url,
			"attempt", attempt,
			"max_attempts", attempts,
			"delay", delay.String(),
			"error", err)
		if m := metrics.Get(); m != nil {
			m.RetryAttempts.WithLabelValues(string(kind)).Inc()
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if f.MaxDelay > 0 && delay > f.MaxDelay {
			delay = f.MaxDelay
		}
	}
	return nil, lastErr
}
