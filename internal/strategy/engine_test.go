package strategy

import (
	"testing"

	"github.com/abdoElHodaky/hftcore/internal/ledger"
	"github.com/abdoElHodaky/hftcore/internal/market"
	"github.com/abdoElHodaky/hftcore/internal/value"
)

type recordingStrategy struct {
	events []market.MarketEvent
}

func (r *recordingStrategy) OnEvent(event market.MarketEvent, view market.View) []value.Signal {
	r.events = append(r.events, event)
	return nil
}
func (r *recordingStrategy) OnExecution(report value.ExecutionReport) []value.Signal { return nil }
func (r *recordingStrategy) State() map[string]interface{}                           { return nil }
func (r *recordingStrategy) Metrics() Metrics                                        { return Metrics{} }
func (r *recordingStrategy) Shutdown() []value.Signal                                { return nil }

func TestEngineDispatchesOnlyToInterestedKeys(t *testing.T) {
	symbol, _ := value.NewSymbol("BTCUSDT")
	venueA, _ := value.NewVenueId("BINANCE")
	venueB, _ := value.NewVenueId("COINBASE")

	e := New()
	a := &recordingStrategy{}
	b := &recordingStrategy{}
	e.Register("a", a, market.Key{Venue: venueA, Symbol: symbol})
	e.Register("b", b, market.Key{Venue: venueB, Symbol: symbol})

	e.Dispatch(market.MarketEvent{Venue: venueA, Symbol: symbol}, market.View{})

	if len(a.events) != 1 {
		t.Errorf("expected strategy a to receive the event, got %d", len(a.events))
	}
	if len(b.events) != 0 {
		t.Errorf("expected strategy b not registered for venueA to receive nothing, got %d", len(b.events))
	}
}

func TestEngineShutdownCollectsAllSignals(t *testing.T) {
	symbol, _ := value.NewSymbol("BTCUSDT")
	venue, _ := value.NewVenueId("BINANCE")

	e := New()
	l := ledger.New()
	_, _, cfg := testMMConfig(t)
	cfg.Symbol = symbol
	cfg.Venue = venue
	mm := NewMarketMakingStrategy(cfg, l)
	e.Register("mm", mm, market.Key{Venue: venue, Symbol: symbol})

	signals := e.Shutdown()
	if len(signals) != 1 || signals[0].Kind != value.SignalCancelAllOrders {
		t.Errorf("expected a single CancelAllOrders signal, got %+v", signals)
	}
}
