// Package fixture provides a deterministic in-memory venue adapter used
// to drive the strategy/risk/loop tests (C6's "NOT a real venue
// integration" counterpart). Grounded on the teacher's
// internal/risk/position_manager_test.go pattern of a hand-built fixture
// struct standing in for a live dependency, generalized here into a full
// venue.Adapter implementation: a programmable market data channel plus
// a scripted order-placement responder, so strategy and loop tests can
// feed exact event sequences and assert exact order-placement calls
// without a network or a mock framework.
package fixture

import (
	"context"
	"sync"

	"github.com/abdoElHodaky/hftcore/internal/market"
	"github.com/abdoElHodaky/hftcore/internal/value"
	"github.com/abdoElHodaky/hftcore/internal/venue"
)

var _ venue.Adapter = (*Adapter)(nil)

// PlaceResult scripts the fixture's response to a single PlaceOrder call.
type PlaceResult struct {
	OrderID value.OrderId
	Err     *venue.Error
}

// Adapter is a single fixture venue. Zero value is not usable; use New.
type Adapter struct {
	id value.VenueId

	mu           sync.Mutex
	placed       []value.NewOrder
	cancelled    []value.OrderId
	cancelledAll []value.Symbol
	placeResults []PlaceResult
	placeIdx     int
	nextOrderID  int

	events      chan market.MarketEvent
	executions  chan value.ExecutionReport
	serverTime  value.Timestamp
	balances    map[string]value.Size
	positions   []venue.AccountPosition
	openOrders  []value.Order
	orderHist   []value.Order
}

// New creates a fixture adapter for id. The caller pushes events into
// the returned Adapter via PushEvent/PushExecution before or after
// Events/Executions is called; the channels are unbuffered-plus-a-little
// so tests can push synchronously without deadlocking on a slow reader.
func New(id value.VenueId) *Adapter {
	return &Adapter{
		id:         id,
		events:     make(chan market.MarketEvent, 64),
		executions: make(chan value.ExecutionReport, 64),
		balances:   make(map[string]value.Size),
	}
}

func (a *Adapter) VenueId() value.VenueId { return a.id }

// PushEvent enqueues a market event for the next Events reader to observe.
func (a *Adapter) PushEvent(e market.MarketEvent) {
	a.events <- e
}

// PushExecution enqueues an execution report.
func (a *Adapter) PushExecution(r value.ExecutionReport) {
	a.executions <- r
}

// CloseEvents closes the market data channel, simulating stream
// termination.
func (a *Adapter) CloseEvents() { close(a.events) }

func (a *Adapter) Events(ctx context.Context, symbols []value.Symbol) (<-chan market.MarketEvent, error) {
	return a.events, nil
}

func (a *Adapter) Executions(ctx context.Context) (<-chan value.ExecutionReport, error) {
	return a.executions, nil
}

// ScriptPlaceOrder appends a scripted response consumed in order by
// successive PlaceOrder calls; once exhausted, PlaceOrder auto-assigns a
// synthetic order id and succeeds.
func (a *Adapter) ScriptPlaceOrder(result PlaceResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.placeResults = append(a.placeResults, result)
}

func (a *Adapter) PlaceOrder(ctx context.Context, order value.NewOrder) (value.OrderId, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.placed = append(a.placed, order)

	if a.placeIdx < len(a.placeResults) {
		r := a.placeResults[a.placeIdx]
		a.placeIdx++
		if r.Err != nil {
			return "", r.Err
		}
		return r.OrderID, nil
	}

	a.nextOrderID++
	return value.OrderId(value.NewClientOrderId(a.id, order.Symbol).String()), nil
}

func (a *Adapter) CancelOrder(ctx context.Context, orderID value.OrderId, symbol value.Symbol) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancelled = append(a.cancelled, orderID)
	return nil
}

func (a *Adapter) CancelAllOrders(ctx context.Context, symbol value.Symbol) ([]value.OrderId, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancelledAll = append(a.cancelledAll, symbol)
	return a.cancelled, nil
}

func (a *Adapter) ServerTime(ctx context.Context) (value.Timestamp, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.serverTime != 0 {
		return a.serverTime, nil
	}
	return value.Now(), nil
}

// SetServerTime pins the fixture's reported server time, for drift tests.
func (a *Adapter) SetServerTime(ts value.Timestamp) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.serverTime = ts
}

// SeedBalance installs a reconciliation balance returned by Balances.
func (a *Adapter) SeedBalance(asset string, amount value.Size) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balances[asset] = amount
}

func (a *Adapter) Balances(ctx context.Context) (map[string]value.Size, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]value.Size, len(a.balances))
	for k, v := range a.balances {
		out[k] = v
	}
	return out, nil
}

func (a *Adapter) Positions(ctx context.Context, symbol *value.Symbol) ([]venue.AccountPosition, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]venue.AccountPosition(nil), a.positions...), nil
}

func (a *Adapter) OpenOrders(ctx context.Context, symbol *value.Symbol) ([]value.Order, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]value.Order(nil), a.openOrders...), nil
}

func (a *Adapter) OrderHistory(ctx context.Context, symbol *value.Symbol, limit int) ([]value.Order, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if limit > 0 && limit < len(a.orderHist) {
		return append([]value.Order(nil), a.orderHist[len(a.orderHist)-limit:]...), nil
	}
	return append([]value.Order(nil), a.orderHist...), nil
}

// PlacedOrders returns every order submitted through PlaceOrder, for test
// assertions.
func (a *Adapter) PlacedOrders() []value.NewOrder {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]value.NewOrder(nil), a.placed...)
}

// CancelledOrders returns every order id passed to CancelOrder.
func (a *Adapter) CancelledOrders() []value.OrderId {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]value.OrderId(nil), a.cancelled...)
}
