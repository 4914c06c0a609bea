// Package book implements the normalized per-(venue, symbol) order book: a
// two-sided depth view built from venue snapshots and deltas, generalizing
// the teacher's internal/core/matching/order_book.go matching-priority heap
// into a pure depth cache — this package never matches orders, it only
// answers best-bid/best-ask/top-N/mid-price/spread queries.
package book

import (
	"sort"
	"sync"

	"github.com/abdoElHodaky/hftcore/internal/value"
	"github.com/shopspring/decimal"
)

// OrderBook is a per-(venue, symbol) two-sided depth view.
type OrderBook struct {
	Venue  value.VenueId
	Symbol value.Symbol

	mu   sync.RWMutex
	bids []Level // sorted descending by price
	asks []Level // sorted ascending by price

	lastUpdateTS value.Timestamp

	// OnCrossed, if set, is invoked whenever a delta leaves the book
	// transiently crossed (best_bid >= best_ask); the loop wires this to the
	// monitor's book_crossed_events counter.
	OnCrossed func(venue value.VenueId, symbol value.Symbol)
	// OnStaleDelta is invoked when a delta is rejected for being older than
	// lastUpdateTS; wired to the monitor's stale_delta counter.
	OnStaleDelta func(venue value.VenueId, symbol value.Symbol)
}

// New creates an empty order book for the given venue and symbol.
func New(venue value.VenueId, symbol value.Symbol) *OrderBook {
	return &OrderBook{Venue: venue, Symbol: symbol}
}

// ApplySnapshot replaces both sides entirely and resets last_update_ts to ts
// unconditionally, per spec.md §4.1 — a snapshot is always authoritative.
func (b *OrderBook) ApplySnapshot(bids, asks []Level, ts value.Timestamp) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.bids = sortSide(bids, Bids)
	b.asks = sortSide(asks, Asks)
	b.lastUpdateTS = ts
}

// ApplyDelta merges a batch of (price, size) changes into each side. A
// size of zero deletes the level; any other size inserts or replaces it.
// Stale deltas (ts < last_update_ts) are rejected silently and reported via
// OnStaleDelta. Returns whether the book is left transiently crossed.
func (b *OrderBook) ApplyDelta(bidChanges, askChanges []Level, ts value.Timestamp) (crossed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ts.Before(b.lastUpdateTS) {
		if b.OnStaleDelta != nil {
			b.OnStaleDelta(b.Venue, b.Symbol)
		}
		return false
	}

	for _, chg := range bidChanges {
		b.bids = mergeLevel(b.bids, chg, Bids)
	}
	for _, chg := range askChanges {
		b.asks = mergeLevel(b.asks, chg, Asks)
	}
	b.lastUpdateTS = ts

	crossed = b.isCrossedLocked()
	if crossed && b.OnCrossed != nil {
		b.OnCrossed(b.Venue, b.Symbol)
	}
	return crossed
}

func (b *OrderBook) isCrossedLocked() bool {
	if len(b.bids) == 0 || len(b.asks) == 0 {
		return false
	}
	return !b.bids[0].Price.LessThan(b.asks[0].Price)
}

// BestBid returns the highest bid level, if any.
func (b *OrderBook) BestBid() (Level, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.bids) == 0 {
		return Level{}, false
	}
	return b.bids[0], true
}

// BestAsk returns the lowest ask level, if any.
func (b *OrderBook) BestAsk() (Level, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.asks) == 0 {
		return Level{}, false
	}
	return b.asks[0], true
}

// TopN returns the best n levels on side as a fresh slice the caller owns.
func (b *OrderBook) TopN(side Side, n int) []Level {
	b.mu.RLock()
	defer b.mu.RUnlock()

	src := b.bids
	if side == Asks {
		src = b.asks
	}
	if n > len(src) {
		n = len(src)
	}
	out := make([]Level, n)
	copy(out, src[:n])
	return out
}

// MidPrice returns the arithmetic mean of best bid and best ask, when both
// sides are non-empty.
func (b *OrderBook) MidPrice() (value.Price, bool) {
	bid, ok1 := b.BestBid()
	ask, ok2 := b.BestAsk()
	if !ok1 || !ok2 {
		return value.Price{}, false
	}
	sum := bid.Price.Add(ask.Price)
	half := sum.Div(value.MustPrice("2"))
	return value.PriceFromDecimal(half), true
}

// SpreadBps returns (best_ask - best_bid) / mid_price * 10_000.
func (b *OrderBook) SpreadBps() (decimal.Decimal, bool) {
	bid, ok1 := b.BestBid()
	ask, ok2 := b.BestAsk()
	if !ok1 || !ok2 {
		return decimal.Zero, false
	}
	mid, ok := b.MidPrice()
	if !ok || mid.IsZero() {
		return decimal.Zero, false
	}
	spread := ask.Price.Sub(bid.Price)
	bps := spread.Div(mid)
	return bps.Mul(decimal.NewFromInt(10000)), true
}

// LastUpdateTS returns the timestamp of the most recent accepted
// snapshot/delta.
func (b *OrderBook) LastUpdateTS() value.Timestamp {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastUpdateTS
}

// IsEmpty reports whether both sides are empty.
func (b *OrderBook) IsEmpty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.bids) == 0 && len(b.asks) == 0
}

func sortSide(levels []Level, side Side) []Level {
	out := make([]Level, 0, len(levels))
	for _, l := range levels {
		if !l.Size.IsZero() {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if side == Bids {
			return out[i].Price.GreaterThan(out[j].Price)
		}
		return out[i].Price.LessThan(out[j].Price)
	})
	return out
}

// mergeLevel applies a single (price, size) change to a sorted side,
// keeping it sorted. size == 0 deletes the level.
func mergeLevel(side []Level, chg Level, s Side) []Level {
	idx := sort.Search(len(side), func(i int) bool {
		if s == Bids {
			return !side[i].Price.GreaterThan(chg.Price)
		}
		return !side[i].Price.LessThan(chg.Price)
	})

	found := idx < len(side) && side[idx].Price.Equal(chg.Price)

	if chg.Size.IsZero() {
		if found {
			side = append(side[:idx], side[idx+1:]...)
		}
		return side
	}

	if found {
		side[idx] = chg
		return side
	}

	side = append(side, Level{})
	copy(side[idx+1:], side[idx:])
	side[idx] = chg
	return side
}
