package ratelimit

import (
	"context"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// SlidingWindow is a secondary, coarser-grained guard layered on top of a
// venue's token bucket: a fixed-window counter per key (e.g. per symbol)
// used to cap burst submission independent of the steady-state token
// bucket rate. Generalizes the teacher's
// internal/api/middleware/security.go JWT-auth rate limiter (a single
// global ulule/limiter/v3 instance guarding an HTTP handler) into a
// keyed limiter guarding order submission bursts per (venue, symbol).
type SlidingWindow struct {
	instance *limiter.Limiter
}

// NewSlidingWindow creates a sliding window allowing limit requests per
// period, keyed by an arbitrary caller-supplied string (typically
// "<venue>:<symbol>").
func NewSlidingWindow(period time.Duration, limit int64) *SlidingWindow {
	store := memory.NewStore()
	rate := limiter.Rate{Period: period, Limit: limit}
	return &SlidingWindow{instance: limiter.New(store, rate)}
}

// Allow reports whether key may proceed under the sliding window, and
// advances the window's counter as a side effect.
func (w *SlidingWindow) Allow(ctx context.Context, key string) (bool, error) {
	result, err := w.instance.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return !result.Reached, nil
}
