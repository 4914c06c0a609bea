package strategy

import (
	"time"

	"github.com/abdoElHodaky/hftcore/internal/value"
)

// cooldownKey identifies a debounce bucket: one per (symbol, venue, side)
// per spec.md §4.2.
type cooldownKey struct {
	Symbol value.Symbol
	Venue  value.VenueId
	Side   value.Side
}

// cooldownTracker suppresses signal emission within window of the previous
// emission for the same key. It is not safe for concurrent use: a strategy
// registered under a single (symbol, venue) key gets single-goroutine
// access for free from the loop's per-key mutex, but a strategy registered
// under multiple keys (cross-venue arbitrage) must serialize its own
// access to the tracker it owns.
type cooldownTracker struct {
	window time.Duration
	last   map[cooldownKey]value.Timestamp
}

func newCooldownTracker(window time.Duration) *cooldownTracker {
	return &cooldownTracker{window: window, last: make(map[cooldownKey]value.Timestamp)}
}

// allow reports whether a signal for key may be emitted at now, and if so
// records now as the new last-emission time. Call only once per candidate
// emission — calling allow and then not emitting leaves the tracker
// believing a signal went out.
func (c *cooldownTracker) allow(symbol value.Symbol, venue value.VenueId, side value.Side, now value.Timestamp) bool {
	key := cooldownKey{Symbol: symbol, Venue: venue, Side: side}
	last, ok := c.last[key]
	if ok && last.Age(now) < c.window {
		return false
	}
	c.last[key] = now
	return true
}
