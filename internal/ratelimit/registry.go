package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/abdoElHodaky/hftcore/internal/value"
)

// Registry lazily creates and tracks one Limiter per venue, plus one
// SlidingWindow per (venue, symbol) burst key.
type Registry struct {
	mu       sync.RWMutex
	limiters map[value.VenueId]*Limiter

	windowMu sync.Mutex
	windows  map[string]*SlidingWindow

	defaultRPS   float64
	defaultBurst int
}

// NewRegistry creates a registry whose venues fall back to
// (defaultRPS, defaultBurst) unless overridden via Configure.
func NewRegistry(defaultRPS float64, defaultBurst int) *Registry {
	return &Registry{
		limiters:     make(map[value.VenueId]*Limiter),
		windows:      make(map[string]*SlidingWindow),
		defaultRPS:   defaultRPS,
		defaultBurst: defaultBurst,
	}
}

// Configure installs an explicit (rps, burst) pair for venue, overriding
// the registry default. Must be called before the venue's first For call.
func (r *Registry) Configure(venue value.VenueId, rps float64, burst int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limiters[venue] = New(rps, burst)
}

// For returns the Limiter for venue, creating one with the registry
// defaults on first use.
func (r *Registry) For(venue value.VenueId) *Limiter {
	r.mu.RLock()
	l, ok := r.limiters[venue]
	r.mu.RUnlock()
	if ok {
		return l
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.limiters[venue]; ok {
		return l
	}
	l = New(r.defaultRPS, r.defaultBurst)
	r.limiters[venue] = l
	return l
}

// DecayAll halves every tracked venue's back-off multiplier; the event
// loop calls this from a once-a-minute timer.
func (r *Registry) DecayAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.limiters {
		l.DecayBackoff()
	}
}

// AllowBurst reports whether (venue, symbol) may submit under the
// registry's coarse per-second burst window, a secondary guard layered on
// top of the venue's own token bucket: the bucket models the venue's
// advertised steady-state rate, this models the "don't flood one symbol"
// policy a single fast-moving strategy instance could otherwise trigger
// even while comfortably under the venue-wide bucket. The window allows
// 3x the registry's default burst per second per key, created lazily on
// first use.
func (r *Registry) AllowBurst(venue value.VenueId, symbol value.Symbol) bool {
	key := venue.String() + ":" + symbol.String()

	r.windowMu.Lock()
	w, ok := r.windows[key]
	if !ok {
		w = NewSlidingWindow(time.Second, int64(r.defaultBurst*3))
		r.windows[key] = w
	}
	r.windowMu.Unlock()

	allowed, err := w.Allow(context.Background(), key)
	if err != nil {
		return true
	}
	return allowed
}
