// Package market holds the in-process aggregate of order book and last-trade
// state across every (venue, symbol) pair the engine tracks, generalizing the
// teacher's internal/marketdata/providers/aggregator.go map-of-maps plus
// sync.RWMutex shape from a multi-exchange price aggregator into a per-key
// order book store that feeds the strategy engine.
package market

import (
	"sync"

	"github.com/abdoElHodaky/hftcore/internal/book"
	"github.com/abdoElHodaky/hftcore/internal/value"
)

// Key identifies a single tracked market.
type Key struct {
	Venue  value.VenueId
	Symbol value.Symbol
}

// State is the single in-memory aggregate of every tracked market's order
// book and last trade. It is written by the event loop's Run goroutine
// (before a market event is dispatched to a per-key task) but read
// concurrently by strategies, so each
// entry's internal synchronization (book.OrderBook's own mutex, and State's
// own map-level RWMutex) is what makes concurrent reads safe, not a
// single-writer guarantee enforced here.
type State struct {
	mu     sync.RWMutex
	books  map[Key]*book.OrderBook
	trades map[Key]Trade

	OnStaleDelta func(venue value.VenueId, symbol value.Symbol)
	OnCrossed    func(venue value.VenueId, symbol value.Symbol)
}

// New creates an empty market state aggregate.
func New() *State {
	return &State{
		books:  make(map[Key]*book.OrderBook),
		trades: make(map[Key]Trade),
	}
}

func (s *State) bookFor(venue value.VenueId, symbol value.Symbol) *book.OrderBook {
	key := Key{Venue: venue, Symbol: symbol}

	s.mu.RLock()
	b, ok := s.books[key]
	s.mu.RUnlock()
	if ok {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.books[key]; ok {
		return b
	}
	b = book.New(venue, symbol)
	b.OnStaleDelta = s.OnStaleDelta
	b.OnCrossed = s.OnCrossed
	s.books[key] = b
	return b
}

// ApplySnapshot applies a full book snapshot for (venue, symbol) and returns
// the resulting market event.
func (s *State) ApplySnapshot(venue value.VenueId, symbol value.Symbol, bids, asks []book.Level, ts value.Timestamp) MarketEvent {
	b := s.bookFor(venue, symbol)
	b.ApplySnapshot(bids, asks, ts)
	return MarketEvent{Kind: EventBookSnapshot, Venue: venue, Symbol: symbol, TS: ts, Bids: bids, Asks: asks}
}

// ApplyDelta applies an incremental book update for (venue, symbol) and
// returns the resulting market event. Stale deltas are absorbed by the
// underlying book and reported through OnStaleDelta; the returned event
// still carries the attempted changes for monitoring purposes.
func (s *State) ApplyDelta(venue value.VenueId, symbol value.Symbol, bidChanges, askChanges []book.Level, ts value.Timestamp) MarketEvent {
	b := s.bookFor(venue, symbol)
	crossed := b.ApplyDelta(bidChanges, askChanges, ts)
	return MarketEvent{Kind: EventBookDelta, Venue: venue, Symbol: symbol, TS: ts, Bids: bidChanges, Asks: askChanges, Crossed: crossed}
}

// ApplyTrade records the last trade print for (venue, symbol).
func (s *State) ApplyTrade(venue value.VenueId, symbol value.Symbol, trade Trade) MarketEvent {
	key := Key{Venue: venue, Symbol: symbol}
	s.mu.Lock()
	s.trades[key] = trade
	s.mu.Unlock()
	return MarketEvent{Kind: EventTrade, Venue: venue, Symbol: symbol, TS: trade.TS, Trade: trade}
}

// Book returns the order book tracked for (venue, symbol), if any updates
// have been applied to it yet.
func (s *State) Book(venue value.VenueId, symbol value.Symbol) (*book.OrderBook, bool) {
	key := Key{Venue: venue, Symbol: symbol}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[key]
	return b, ok
}

// LastTrade returns the last observed trade for (venue, symbol), if any.
func (s *State) LastTrade(venue value.VenueId, symbol value.Symbol) (Trade, bool) {
	key := Key{Venue: venue, Symbol: symbol}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trades[key]
	return t, ok
}

// Venues returns every venue currently tracked for symbol, used by the
// cross-venue arbitrage strategy to scan candidate pairs.
func (s *State) Venues(symbol value.Symbol) []value.VenueId {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []value.VenueId
	for key := range s.books {
		if key.Symbol == symbol {
			out = append(out, key.Venue)
		}
	}
	return out
}

// View is a read-only, allocation-light summary of a tracked market, safe
// for strategies to consult without touching the underlying OrderBook's
// locking directly.
type View struct {
	Venue     value.VenueId
	Symbol    value.Symbol
	BestBid   book.Level
	BestAsk   book.Level
	HasBid    bool
	HasAsk    bool
	LastTrade Trade
	HasTrade  bool
	UpdatedAt value.Timestamp
}

// Snapshot builds a View for (venue, symbol).
func (s *State) Snapshot(venue value.VenueId, symbol value.Symbol) (View, bool) {
	b, ok := s.Book(venue, symbol)
	if !ok {
		return View{}, false
	}
	v := View{Venue: venue, Symbol: symbol, UpdatedAt: b.LastUpdateTS()}
	v.BestBid, v.HasBid = b.BestBid()
	v.BestAsk, v.HasAsk = b.BestAsk()
	v.LastTrade, v.HasTrade = s.LastTrade(venue, symbol)
	return v, true
}
