package strategy

import (
	"github.com/abdoElHodaky/hftcore/internal/market"
	"github.com/abdoElHodaky/hftcore/internal/value"
)

// Engine hosts every registered strategy instance and fans events out to
// the ones interested in a given (symbol, venue) key, generalizing the
// teacher's internal/strategies/strategy.go Manager (map-keyed-by-name
// registry plus an active-set toggle) into an event-routing layer: this
// repo's strategies are always active once registered, since spec.md has
// no notion of pausing a strategy short of process shutdown.
type Engine struct {
	instances map[string]Strategy
	interest  map[market.Key][]string
}

// New creates an empty strategy engine.
func New() *Engine {
	return &Engine{
		instances: make(map[string]Strategy),
		interest:  make(map[market.Key][]string),
	}
}

// Register adds a strategy under name, interested in every key listed.
// A market-making instance registers one key (its own symbol/venue); an
// arbitrage instance registers one key per configured venue.
func (e *Engine) Register(name string, s Strategy, keys ...market.Key) {
	e.instances[name] = s
	for _, k := range keys {
		e.interest[k] = append(e.interest[k], name)
	}
}

// Dispatch routes event to every strategy registered for its (venue,
// symbol) key and returns the concatenation of their emitted signals, in
// registration order.
func (e *Engine) Dispatch(event market.MarketEvent, view market.View) []value.Signal {
	key := market.Key{Venue: event.Venue, Symbol: event.Symbol}
	var out []value.Signal
	for _, name := range e.interest[key] {
		out = append(out, e.instances[name].OnEvent(event, view)...)
	}
	return out
}

// DispatchExecution routes an execution report to every registered
// strategy, since a single arbitrage instance may hold legs on venues
// other than the one the report names.
func (e *Engine) DispatchExecution(report value.ExecutionReport) []value.Signal {
	var out []value.Signal
	for _, s := range e.instances {
		out = append(out, s.OnExecution(report)...)
	}
	return out
}

// Tick drives every registered Ticker strategy.
func (e *Engine) Tick(now value.Timestamp) []value.Signal {
	var out []value.Signal
	for _, s := range e.instances {
		if t, ok := s.(Ticker); ok {
			out = append(out, t.Tick(now)...)
		}
	}
	return out
}

// Shutdown drains every registered strategy's shutdown signals.
func (e *Engine) Shutdown() []value.Signal {
	var out []value.Signal
	for _, s := range e.instances {
		out = append(out, s.Shutdown()...)
	}
	return out
}

// Get returns the strategy registered under name, for metrics/state
// introspection.
func (e *Engine) Get(name string) (Strategy, bool) {
	s, ok := e.instances[name]
	return s, ok
}
