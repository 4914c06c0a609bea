// Package ratelimit implements the rate limiter (C8): a token bucket per
// venue with an adaptive back-off multiplier, generalizing the teacher's
// internal/trading/mitigation/rate_limiter.go wrapper around
// golang.org/x/time/rate (name, config, metrics struct, Allow/Wait/SetLimit
// shape) with an adaptive multiplier: it doubles on each venue-reported
// rate-limit hit and halves on each DecayBackoff call, which the event loop
// makes once a minute whether or not that minute saw a rate-limit hit;
// floored at 1.0 and capped at 16.0.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Metrics mirrors the teacher's RateLimiterMetrics shape.
type Metrics struct {
	Allowed     int64
	Limited     int64
	Multiplier  float64
	LastAllowed time.Time
	LastLimited time.Time
}

// Limiter is a single venue's rate limiter: a token bucket whose effective
// rate is baseRPS / multiplier. Thread-safety is a single mutex acquired
// only for the O(1) bucket update and multiplier adjustment, per spec.md
// §4.5 — contention is bounded because only the event loop issues
// requests.
type Limiter struct {
	mu sync.Mutex

	limiter    *rate.Limiter
	baseRPS    float64
	burst      int
	multiplier float64

	metrics Metrics
}

const (
	minMultiplier = 1.0
	maxMultiplier = 16.0
)

// New creates a venue rate limiter with the given steady-state requests
// per second and burst.
func New(requestsPerSecond float64, burst int) *Limiter {
	return &Limiter{
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		baseRPS:    requestsPerSecond,
		burst:      burst,
		multiplier: minMultiplier,
		metrics:    Metrics{Multiplier: minMultiplier},
	}
}

// Allow reports whether a new-order request may proceed right now, without
// blocking. HFT default per spec.md §4.5: new-order requests are
// reject-new, not queued.
func (l *Limiter) Allow() bool {
	allowed := l.limiter.Allow()

	l.mu.Lock()
	defer l.mu.Unlock()
	if allowed {
		l.metrics.Allowed++
		l.metrics.LastAllowed = time.Now()
	} else {
		l.metrics.Limited++
		l.metrics.LastLimited = time.Now()
	}
	return allowed
}

// AllowCancel always permits a cancel request: cancels must always land,
// per spec.md §4.5, so they bypass the bucket entirely rather than queue
// behind new-order traffic.
func (l *Limiter) AllowCancel() bool {
	l.mu.Lock()
	l.metrics.Allowed++
	l.metrics.LastAllowed = time.Now()
	l.mu.Unlock()
	return true
}

// Wait blocks until a token is available or ctx is cancelled, for callers
// configured to block rather than reject (e.g. non-latency-critical
// reconciliation calls).
func (l *Limiter) Wait(ctx context.Context) error {
	err := l.limiter.Wait(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.metrics.Limited++
		l.metrics.LastLimited = time.Now()
		return err
	}
	l.metrics.Allowed++
	l.metrics.LastAllowed = time.Now()
	return nil
}

// OnRateLimited is called when the venue itself reports a rate-limit
// rejection; it doubles the back-off multiplier (capped at 16.0) and
// shrinks the effective rate accordingly.
func (l *Limiter) OnRateLimited() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.multiplier *= 2
	if l.multiplier > maxMultiplier {
		l.multiplier = maxMultiplier
	}
	l.applyMultiplierLocked()
}

// DecayBackoff halves the multiplier, floored at 1.0. The event loop calls
// this (through Registry.DecayAll) once a minute from a timer, whether or
// not the venue reported a rate limit during that minute, and not on
// every request.
func (l *Limiter) DecayBackoff() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.multiplier /= 2
	if l.multiplier < minMultiplier {
		l.multiplier = minMultiplier
	}
	l.applyMultiplierLocked()
}

func (l *Limiter) applyMultiplierLocked() {
	effective := l.baseRPS / l.multiplier
	l.limiter.SetLimit(rate.Limit(effective))
	l.metrics.Multiplier = l.multiplier
}

// Metrics returns a value copy of the limiter's current counters.
func (l *Limiter) Metrics() Metrics {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.metrics
}
