package market

import (
	"testing"

	"github.com/abdoElHodaky/hftcore/internal/book"
	"github.com/abdoElHodaky/hftcore/internal/value"
)

func testKey(t *testing.T) (value.VenueId, value.Symbol) {
	t.Helper()
	venue, err := value.NewVenueId("BINANCE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	symbol, err := value.NewSymbol("BTCUSDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return venue, symbol
}

func TestApplySnapshotCreatesBookLazily(t *testing.T) {
	venue, symbol := testKey(t)
	s := New()

	if _, ok := s.Book(venue, symbol); ok {
		t.Fatal("expected no book before first update")
	}

	s.ApplySnapshot(venue, symbol, []book.Level{{Price: value.MustPrice("100"), Size: value.MustSize("1")}}, nil, 1)

	b, ok := s.Book(venue, symbol)
	if !ok {
		t.Fatal("expected book to exist after snapshot")
	}
	bid, ok := b.BestBid()
	if !ok || bid.Price.String() != "100" {
		t.Errorf("expected best bid 100, got %+v", bid)
	}
}

func TestStaleDeltaCallbackWiredThroughState(t *testing.T) {
	venue, symbol := testKey(t)
	s := New()
	var stale int
	s.OnStaleDelta = func(value.VenueId, value.Symbol) { stale++ }

	s.ApplySnapshot(venue, symbol, []book.Level{{Price: value.MustPrice("100"), Size: value.MustSize("1")}}, nil, 1000)
	s.ApplyDelta(venue, symbol, []book.Level{{Price: value.MustPrice("100"), Size: value.MustSize("2")}}, nil, 999)

	if stale != 1 {
		t.Errorf("expected stale delta callback to fire once, got %d", stale)
	}
}

func TestLastTradeTracking(t *testing.T) {
	venue, symbol := testKey(t)
	s := New()

	s.ApplyTrade(venue, symbol, Trade{Price: value.MustPrice("100"), Size: value.MustSize("1"), Side: value.Buy, TS: 5})

	trade, ok := s.LastTrade(venue, symbol)
	if !ok || trade.Price.String() != "100" {
		t.Errorf("expected last trade price 100, got %+v ok=%v", trade, ok)
	}
}

func TestSnapshotViewReflectsBookAndTrade(t *testing.T) {
	venue, symbol := testKey(t)
	s := New()
	s.ApplySnapshot(venue, symbol, []book.Level{{Price: value.MustPrice("100"), Size: value.MustSize("1")}}, []book.Level{{Price: value.MustPrice("101"), Size: value.MustSize("1")}}, 1)
	s.ApplyTrade(venue, symbol, Trade{Price: value.MustPrice("100.5"), Size: value.MustSize("1"), Side: value.Sell, TS: 2})

	view, ok := s.Snapshot(venue, symbol)
	if !ok {
		t.Fatal("expected snapshot to be available")
	}
	if !view.HasBid || !view.HasAsk || !view.HasTrade {
		t.Fatalf("expected full view, got %+v", view)
	}
	if view.BestBid.Price.String() != "100" || view.BestAsk.Price.String() != "101" {
		t.Errorf("unexpected view levels: %+v", view)
	}
}

func TestVenuesReturnsOnlyMatchingSymbol(t *testing.T) {
	s := New()
	btcVenue1, btc := testKey(t)
	btcVenue2, err := value.NewVenueId("COINBASE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eth, err := value.NewSymbol("ETHUSDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.ApplySnapshot(btcVenue1, btc, []book.Level{{Price: value.MustPrice("100"), Size: value.MustSize("1")}}, nil, 1)
	s.ApplySnapshot(btcVenue2, btc, []book.Level{{Price: value.MustPrice("100"), Size: value.MustSize("1")}}, nil, 1)
	s.ApplySnapshot(btcVenue1, eth, []book.Level{{Price: value.MustPrice("10"), Size: value.MustSize("1")}}, nil, 1)

	venues := s.Venues(btc)
	if len(venues) != 2 {
		t.Errorf("expected 2 venues for BTCUSDT, got %d", len(venues))
	}
}
