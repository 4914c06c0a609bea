package loop

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/hftcore/internal/book"
	"github.com/abdoElHodaky/hftcore/internal/ledger"
	"github.com/abdoElHodaky/hftcore/internal/market"
	"github.com/abdoElHodaky/hftcore/internal/monitor"
	"github.com/abdoElHodaky/hftcore/internal/ratelimit"
	"github.com/abdoElHodaky/hftcore/internal/risk"
	"github.com/abdoElHodaky/hftcore/internal/strategy"
	"github.com/abdoElHodaky/hftcore/internal/value"
	"github.com/abdoElHodaky/hftcore/internal/venue"
	"github.com/abdoElHodaky/hftcore/internal/venue/fixture"
)

func newTestLoop(t *testing.T) (*Loop, value.Symbol, value.VenueId, *fixture.Adapter, *ledger.Ledger) {
	t.Helper()

	symbol, err := value.NewSymbol("BTCUSDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	venueID, err := value.NewVenueId("BINANCE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	adapter := fixture.New(venueID)

	led := ledger.New()
	led.SeedBalance(venueID, "USDT", value.MustSize("1000000"))
	led.SeedBalance(venueID, "BTC", value.MustSize("1000"))

	gate := risk.New(led,
		risk.MaxOrderSize{Limit: value.MustSize("100")},
		risk.MaxOrderValue{Limit: value.MustSize("1000000")},
		risk.MaxPosition{Limit: value.MustSize("1000")},
	)

	limiters := ratelimit.NewRegistry(1000, 1000)
	mon := monitor.New(prometheus.NewRegistry())

	state := market.New()
	engine := strategy.New()
	mmCfg := strategy.MMConfig{
		Symbol:               symbol,
		Venue:                venueID,
		SpreadBps:            decimal.NewFromInt(10),
		MinSpreadBps:         decimal.NewFromInt(2),
		MaxSpreadBps:         decimal.NewFromInt(100),
		OrderSize:            value.MustSize("1"),
		MaxPosition:          value.MustSize("10"),
		TargetInventoryRatio: decimal.NewFromFloat(0.5),
		SkewCoeff:            decimal.NewFromFloat(0.5),
		Levels:               1,
		TickSize:             value.MustPrice("0.5"),
		PriceTolerance:       value.MustPrice("0.01"),
		Cooldown:             0,
	}
	mm := strategy.NewMarketMakingStrategy(mmCfg, led)
	engine.Register("mm", mm, market.Key{Venue: venueID, Symbol: symbol})

	adapters := map[value.VenueId]venue.Adapter{venueID: adapter}

	l, err := New(state, engine, led, gate, limiters, mon, adapters, zap.NewNop(), Config{MaxWorkers: 4, GraceShutdown: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return l, symbol, venueID, adapter, led
}

func TestLoopPlacesOrdersFromMarketMakingSignal(t *testing.T) {
	l, symbol, venueID, adapter, _ := newTestLoop(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	marketEvents, err := adapter.Events(ctx, []value.Symbol{symbol})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	execReports, err := adapter.Executions(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	control := make(chan ControlEvent)

	runDone := make(chan error, 1)
	go func() { runDone <- l.Run(ctx, marketEvents, execReports, control) }()

	adapter.PushEvent(market.MarketEvent{
		Kind:   market.EventBookSnapshot,
		Venue:  venueID,
		Symbol: symbol,
		TS:     1,
		Bids:   []book.Level{{Price: value.MustPrice("100"), Size: value.MustSize("5")}},
		Asks:   []book.Level{{Price: value.MustPrice("100.2"), Size: value.MustSize("5")}},
	})

	deadline := time.After(time.Second)
	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()
	for len(adapter.PlacedOrders()) == 0 {
		select {
		case <-tick.C:
		case <-deadline:
			t.Fatal("timed out waiting for the market-making strategy to place an order")
		}
	}

	placed := adapter.PlacedOrders()
	if len(placed) != 2 {
		t.Fatalf("expected a two-level (1 bid + 1 ask) quote, got %d orders", len(placed))
	}

	control <- ControlEvent{Kind: ControlShutdown}
	select {
	case err := <-runDone:
		if err != nil {
			t.Errorf("unexpected error from Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Run to return after shutdown")
	}
}

func TestLoopAppliesExecutionReportToLedger(t *testing.T) {
	l, symbol, venueID, adapter, led := newTestLoop(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	marketEvents, _ := adapter.Events(ctx, []value.Symbol{symbol})
	execReports, _ := adapter.Executions(ctx)
	control := make(chan ControlEvent)

	runDone := make(chan error, 1)
	go func() { runDone <- l.Run(ctx, marketEvents, execReports, control) }()

	adapter.PushEvent(market.MarketEvent{
		Kind:   market.EventBookSnapshot,
		Venue:  venueID,
		Symbol: symbol,
		TS:     1,
		Bids:   []book.Level{{Price: value.MustPrice("100"), Size: value.MustSize("5")}},
		Asks:   []book.Level{{Price: value.MustPrice("100.2"), Size: value.MustSize("5")}},
	})

	deadline := time.After(time.Second)
	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()
	var placed []value.NewOrder
	for len(placed) == 0 {
		select {
		case <-tick.C:
			placed = adapter.PlacedOrders()
		case <-deadline:
			t.Fatal("timed out waiting for an order to place")
		}
	}

	buyOrder := placed[0]
	for _, o := range placed {
		if o.Side == value.Buy {
			buyOrder = o
			break
		}
	}

	avgPrice := value.MustPrice("100")
	adapter.PushExecution(value.ExecutionReport{
		ClientOrderID: buyOrder.ClientOrderID,
		Symbol:        symbol,
		Venue:         venueID,
		Status:        value.StatusFilled,
		FilledSize:    buyOrder.Size,
		AveragePrice:  &avgPrice,
		TS:            2,
	})

	deadline = time.After(time.Second)
	for led.Position(symbol).Size.IsZero() {
		select {
		case <-tick.C:
		case <-deadline:
			t.Fatal("timed out waiting for the ledger position to update from the execution report")
		}
	}

	control <- ControlEvent{Kind: ControlShutdown}
	<-runDone
}

// TestLoopAppliesMarketEventsInReceiptOrder guards against the worker pool
// reordering same-key mutations: a snapshot followed immediately by a
// delta must leave the delta's change visible, never have the delta's
// mutation run before the snapshot's and then get discarded by it.
func TestLoopAppliesMarketEventsInReceiptOrder(t *testing.T) {
	l, symbol, venueID, adapter, _ := newTestLoop(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	marketEvents, _ := adapter.Events(ctx, []value.Symbol{symbol})
	execReports, _ := adapter.Executions(ctx)
	control := make(chan ControlEvent)

	runDone := make(chan error, 1)
	go func() { runDone <- l.Run(ctx, marketEvents, execReports, control) }()

	adapter.PushEvent(market.MarketEvent{
		Kind:   market.EventBookSnapshot,
		Venue:  venueID,
		Symbol: symbol,
		TS:     1000,
		Bids:   []book.Level{{Price: value.MustPrice("100"), Size: value.MustSize("5")}},
		Asks:   []book.Level{{Price: value.MustPrice("100.2"), Size: value.MustSize("5")}},
	})
	adapter.PushEvent(market.MarketEvent{
		Kind:   market.EventBookDelta,
		Venue:  venueID,
		Symbol: symbol,
		TS:     1001,
		Bids: []book.Level{
			{Price: value.MustPrice("100"), Size: value.MustSize("0")}, // delete the snapshot's best bid
			{Price: value.MustPrice("99"), Size: value.MustSize("5")},
		},
	})

	deadline := time.After(time.Second)
	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()
	for {
		view, ok := l.market.Snapshot(venueID, symbol)
		if ok && view.HasBid && view.BestBid.Price.String() == "99" {
			break
		}
		select {
		case <-tick.C:
		case <-deadline:
			t.Fatal("timed out waiting for the delta's bid to become the best bid")
		}
	}

	view, _ := l.market.Snapshot(venueID, symbol)
	if view.UpdatedAt != 1001 {
		t.Errorf("expected book's last update to be the delta's timestamp 1001, got %d", view.UpdatedAt)
	}

	control <- ControlEvent{Kind: ControlShutdown}
	<-runDone
}
