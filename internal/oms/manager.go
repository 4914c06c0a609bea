// Package oms is the order manager (C7): it owns every in-flight order's
// lifecycle, enforcing the value.Order state machine and idempotent
// execution-report application, generalizing the teacher's
// internal/trading/services/order_manager.go pipeline (validate -> risk ->
// settle -> submit -> persist) down to the subset spec.md scopes for this
// engine: submit, ack, execution report, cancel, cancel-all against an
// in-memory live-order table rather than a database-backed OrderStore,
// since this engine has no persistence layer (see DESIGN.md).
package oms

import (
	"context"
	"sync"

	"github.com/abdoElHodaky/hftcore/internal/value"
)

// Submitter is the venue dispatch surface the order manager submits
// through. The event loop supplies an implementation that wraps each venue
// adapter with a circuit breaker; the loop checks the rate limiter before
// calling Submit, outside the submitter.
type Submitter interface {
	PlaceOrder(ctx context.Context, order value.NewOrder) (value.OrderId, error)
	CancelOrder(ctx context.Context, venue value.VenueId, symbol value.Symbol, orderID value.OrderId) error
	CancelAllOrders(ctx context.Context, venue value.VenueId, symbol value.Symbol) ([]value.OrderId, error)
}

// Manager tracks every live order by ClientOrderId.
type Manager struct {
	mu     sync.RWMutex
	orders map[value.ClientOrderId]*LiveOrder

	// byOrderID indexes the same records by venue-assigned OrderId, for
	// execution reports that only carry that id (spec.md §4.4).
	byOrderID map[value.OrderId]value.ClientOrderId

	submitter Submitter

	// OnInvalidTransition is invoked (if set) when an execution report is
	// discarded for naming a transition the state machine disallows.
	OnInvalidTransition func(clientID value.ClientOrderId, from, to value.OrderStatus)
}

// New creates an order manager dispatching through submitter.
func New(submitter Submitter) *Manager {
	return &Manager{
		orders:    make(map[value.ClientOrderId]*LiveOrder),
		byOrderID: make(map[value.OrderId]value.ClientOrderId),
		submitter: submitter,
	}
}

// Submit records order in the New state and forwards it to the venue
// through the submitter, per spec.md §4.4. On submission
// failure the order is recorded Rejected and the reservation is the
// caller's to release (the gate created it; Submit does not release it,
// since some venue errors are transient and a retrying caller may reuse
// the same reservation).
func (m *Manager) Submit(ctx context.Context, order value.NewOrder, reservation value.ReservationId, now value.Timestamp) (*LiveOrder, error) {
	live := &LiveOrder{
		NewOrder:      order,
		ClientOrderID: order.ClientOrderID,
		Status:        value.StatusNew,
		FilledSize:    value.ZeroSize,
		Reservation:   reservation,
		CreatedTS:     now,
		UpdatedTS:     now,
	}

	m.mu.Lock()
	m.orders[order.ClientOrderID] = live
	m.mu.Unlock()

	orderID, err := m.submitter.PlaceOrder(ctx, order)
	if err != nil {
		m.mu.Lock()
		live.Status = value.StatusRejected
		live.UpdatedTS = now
		m.mu.Unlock()
		return live, err
	}

	m.mu.Lock()
	live.OrderID = orderID
	m.byOrderID[orderID] = order.ClientOrderID
	m.mu.Unlock()
	return live, nil
}

// OnAck binds the venue-assigned order id once the venue has acknowledged
// the order.
func (m *Manager) OnAck(clientID value.ClientOrderId, orderID value.OrderId) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	live, ok := m.orders[clientID]
	if !ok {
		return ErrNotFound
	}
	live.OrderID = orderID
	m.byOrderID[orderID] = clientID
	return nil
}

// Get returns the live order tracked for clientID.
func (m *Manager) Get(clientID value.ClientOrderId) (*LiveOrder, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	live, ok := m.orders[clientID]
	return live, ok
}

// OnExecutionReport applies report to the tracked order, enforcing the
// §3 state machine and idempotence: a report with filled_size and status
// equal to the current record is a no-op; a report with smaller
// filled_size than the current record is discarded. A report is matched
// first by ClientOrderID; per spec.md §4.4, a report carrying only the
// venue-assigned OrderId (no client id) falls back to the OrderId index
// that Submit and OnAck populate.
func (m *Manager) OnExecutionReport(report value.ExecutionReport) (*LiveOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	clientID := report.ClientOrderID
	if clientID == "" && report.OrderID != "" {
		clientID = m.byOrderID[report.OrderID]
	}

	live, ok := m.orders[clientID]
	if !ok {
		return nil, ErrNotFound
	}

	if report.Status == live.Status && report.FilledSize.Equal(live.FilledSize) {
		return live, nil
	}
	if report.FilledSize.LessThan(live.FilledSize) {
		return live, nil
	}

	if !live.Status.CanTransition(report.Status) {
		if m.OnInvalidTransition != nil {
			m.OnInvalidTransition(clientID, live.Status, report.Status)
		}
		return live, ErrInvalidTransition
	}

	live.Status = report.Status
	live.FilledSize = report.FilledSize
	live.AveragePrice = report.AveragePrice
	live.UpdatedTS = report.TS
	return live, nil
}

// Cancel requests cancellation of clientID's order. Returns ErrNotFound if
// the order is unknown, ErrAlreadyTerminal if it has already reached a
// terminal state.
func (m *Manager) Cancel(ctx context.Context, clientID value.ClientOrderId) error {
	m.mu.RLock()
	live, ok := m.orders[clientID]
	if !ok {
		m.mu.RUnlock()
		return ErrNotFound
	}
	if live.Status.IsTerminal() {
		m.mu.RUnlock()
		return ErrAlreadyTerminal
	}
	venue, symbol, orderID := live.Venue, live.Symbol, live.OrderID
	m.mu.RUnlock()
	return m.submitter.CancelOrder(ctx, venue, symbol, orderID)
}

// CancelAll requests cancellation of every live, non-terminal order for
// (symbol, venue).
func (m *Manager) CancelAll(ctx context.Context, venue value.VenueId, symbol value.Symbol) ([]value.OrderId, error) {
	return m.submitter.CancelAllOrders(ctx, venue, symbol)
}

// LiveOrders returns a snapshot slice of every currently tracked order, for
// monitoring and shutdown drain.
func (m *Manager) LiveOrders() []*LiveOrder {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*LiveOrder, 0, len(m.orders))
	for _, live := range m.orders {
		out = append(out, live)
	}
	return out
}
