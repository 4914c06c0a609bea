// Package strategy implements the strategy engine (C4): the uniform
// Strategy interface every trading strategy implements, a cooldown
// tracker shared by all implementations, and the two concrete
// strategies SPEC_FULL.md names — market making and cross-venue
// arbitrage — plus an Engine that routes market events and execution
// reports to every registered instance. Grounded on the teacher's
// internal/strategies/strategy.go Strategy interface and Manager
// registry (Name/Initialize/Execute/Cleanup, a map-keyed-by-name
// registry with an active-set), generalized from a single
// Execute(marketData) → orders call into the event-sourced
// OnEvent/OnExecution shape spec.md §4.2 requires, and from
// teacher's float64 MarketData/Order types onto internal/value and
// internal/market's decimal-exact types.
package strategy

import (
	"github.com/abdoElHodaky/hftcore/internal/market"
	"github.com/abdoElHodaky/hftcore/internal/value"
)

// Metrics is the subset of per-strategy counters the monitor scrapes.
// Generalizes the teacher's GetParameters() map[string]interface{}
// ad-hoc bag into a typed struct, since this repo's strategies report
// to Prometheus rather than a config-introspection endpoint.
type Metrics struct {
	EventsHandled   int64
	SignalsEmitted  int64
	SignalsSuppressed int64
}

// Strategy is the uniform interface every strategy implementation
// exposes to the event loop, per spec.md §4.2. The loop's single-writer
// discipline gives an instance registered under exactly one (symbol,
// venue) key single-goroutine access for free, since that key's mutex
// serializes every call into it; market making relies on this and holds
// no lock of its own. An instance registered under more than one key
// (cross-venue arbitrage) has no such guarantee — two different keys'
// mutexes, or a market event racing an execution report (which
// Engine.DispatchExecution routes to every instance regardless of key),
// can call into it concurrently, so it must serialize its own state the
// way monitor.Monitor guards its latency table.
type Strategy interface {
	// OnEvent is called once per market event for every (symbol, venue)
	// key this strategy instance is interested in, with view holding the
	// current aggregate book/trade state for that key.
	OnEvent(event market.MarketEvent, view market.View) []value.Signal

	// OnExecution is called once per execution report the loop processes,
	// whichever instance placed the order (Engine.DispatchExecution routes
	// every report to every instance). Typically returns no signals;
	// used for inventory-aware re-quoting and arbitrage leg tracking.
	OnExecution(report value.ExecutionReport) []value.Signal

	// State returns a snapshot of strategy-internal state for
	// diagnostics, mirroring the teacher's GetParameters() shape.
	State() map[string]interface{}

	Metrics() Metrics

	// Shutdown returns the signals needed to bring the strategy to a
	// safe resting state (typically a CancelAllOrders per tracked key).
	Shutdown() []value.Signal
}

// Ticker is implemented by strategies that take a periodic action
// independent of market events. Engine.Tick type-asserts for it and calls
// Tick on each registered strategy that implements it; strategies that
// don't need this (arbitrage) simply don't implement it. The event loop
// does not call Engine.Tick, and the market-making strategy's Tick returns
// no signals, so there is no periodic re-quote.
type Ticker interface {
	Tick(now value.Timestamp) []value.Signal
}
