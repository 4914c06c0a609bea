package oms

import (
	"context"
	"errors"
	"testing"

	"github.com/abdoElHodaky/hftcore/internal/value"
)

type fakeSubmitter struct {
	placeErr  error
	orderID   value.OrderId
	cancelled []value.OrderId
}

func (f *fakeSubmitter) PlaceOrder(ctx context.Context, order value.NewOrder) (value.OrderId, error) {
	if f.placeErr != nil {
		return "", f.placeErr
	}
	return f.orderID, nil
}

func (f *fakeSubmitter) CancelOrder(ctx context.Context, venue value.VenueId, symbol value.Symbol, orderID value.OrderId) error {
	f.cancelled = append(f.cancelled, orderID)
	return nil
}

func (f *fakeSubmitter) CancelAllOrders(ctx context.Context, venue value.VenueId, symbol value.Symbol) ([]value.OrderId, error) {
	return f.cancelled, nil
}

func testNewOrder(t *testing.T) value.NewOrder {
	t.Helper()
	venue, err := value.NewVenueId("BINANCE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	symbol, err := value.NewSymbol("BTCUSDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	price := value.MustPrice("100")
	return value.NewOrder{
		Symbol:        symbol,
		Venue:         venue,
		Side:          value.Buy,
		Type:          value.Limit,
		TIF:           value.GTC,
		Price:         &price,
		Size:          value.MustSize("10"),
		ClientOrderID: value.NewClientOrderId(venue, symbol),
	}
}

func TestSubmitRecordsNewState(t *testing.T) {
	order := testNewOrder(t)
	sub := &fakeSubmitter{orderID: "venue-order-1"}
	m := New(sub)

	live, err := m.Submit(context.Background(), order, "res-1", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if live.Status != value.StatusNew {
		t.Errorf("expected status New, got %s", live.Status)
	}
	if live.OrderID != "venue-order-1" {
		t.Errorf("expected venue order id bound, got %s", live.OrderID)
	}
}

func TestSubmitFailureRecordsRejected(t *testing.T) {
	order := testNewOrder(t)
	sub := &fakeSubmitter{placeErr: errors.New("connection refused")}
	m := New(sub)

	live, err := m.Submit(context.Background(), order, "res-1", 1)
	if err == nil {
		t.Fatal("expected error")
	}
	if live.Status != value.StatusRejected {
		t.Errorf("expected status Rejected, got %s", live.Status)
	}
}

func TestPartialFillThenCancel(t *testing.T) {
	// Scenario E4: order partially fills, then is cancelled; the live
	// order ends in Cancelled with FilledSize reflecting the partial fill.
	order := testNewOrder(t)
	sub := &fakeSubmitter{orderID: "venue-order-1"}
	m := New(sub)

	live, err := m.Submit(context.Background(), order, "res-1", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = m.OnExecutionReport(value.ExecutionReport{
		ClientOrderID: order.ClientOrderID,
		Status:        value.StatusPartiallyFilled,
		FilledSize:    value.MustSize("4"),
		TS:            2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := m.Cancel(context.Background(), order.ClientOrderID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = m.OnExecutionReport(value.ExecutionReport{
		ClientOrderID: order.ClientOrderID,
		Status:        value.StatusCancelled,
		FilledSize:    value.MustSize("4"),
		TS:            3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if live.Status != value.StatusCancelled {
		t.Errorf("expected final status Cancelled, got %s", live.Status)
	}
	if live.FilledSize.String() != "4" {
		t.Errorf("expected filled size 4, got %s", live.FilledSize)
	}
	if len(sub.cancelled) != 1 {
		t.Errorf("expected one cancel call, got %d", len(sub.cancelled))
	}
}

func TestIdempotentDuplicateReportIsNoOp(t *testing.T) {
	order := testNewOrder(t)
	sub := &fakeSubmitter{orderID: "venue-order-1"}
	m := New(sub)
	m.Submit(context.Background(), order, "res-1", 1)

	report := value.ExecutionReport{ClientOrderID: order.ClientOrderID, Status: value.StatusPartiallyFilled, FilledSize: value.MustSize("4"), TS: 2}
	if _, err := m.OnExecutionReport(report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.OnExecutionReport(report); err != nil {
		t.Fatalf("expected duplicate report to be a no-op, got %v", err)
	}

	live, _ := m.Get(order.ClientOrderID)
	if live.FilledSize.String() != "4" {
		t.Errorf("expected filled size unchanged at 4, got %s", live.FilledSize)
	}
}

func TestSmallerFilledSizeReportDiscarded(t *testing.T) {
	order := testNewOrder(t)
	sub := &fakeSubmitter{orderID: "venue-order-1"}
	m := New(sub)
	m.Submit(context.Background(), order, "res-1", 1)

	m.OnExecutionReport(value.ExecutionReport{ClientOrderID: order.ClientOrderID, Status: value.StatusPartiallyFilled, FilledSize: value.MustSize("5"), TS: 2})
	m.OnExecutionReport(value.ExecutionReport{ClientOrderID: order.ClientOrderID, Status: value.StatusPartiallyFilled, FilledSize: value.MustSize("3"), TS: 3})

	live, _ := m.Get(order.ClientOrderID)
	if live.FilledSize.String() != "5" {
		t.Errorf("expected filled size to stay at 5 after stale report, got %s", live.FilledSize)
	}
}

func TestInvalidTransitionRejected(t *testing.T) {
	order := testNewOrder(t)
	sub := &fakeSubmitter{orderID: "venue-order-1"}
	m := New(sub)
	m.Submit(context.Background(), order, "res-1", 1)

	var invalidFrom, invalidTo value.OrderStatus
	m.OnInvalidTransition = func(clientID value.ClientOrderId, from, to value.OrderStatus) {
		invalidFrom, invalidTo = from, to
	}

	m.OnExecutionReport(value.ExecutionReport{ClientOrderID: order.ClientOrderID, Status: value.StatusPartiallyFilled, FilledSize: value.MustSize("4"), TS: 2})

	_, err := m.OnExecutionReport(value.ExecutionReport{ClientOrderID: order.ClientOrderID, Status: value.StatusRejected, FilledSize: value.MustSize("4"), TS: 3})
	if err != ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if invalidFrom != value.StatusPartiallyFilled || invalidTo != value.StatusRejected {
		t.Errorf("unexpected invalid transition callback args: %s -> %s", invalidFrom, invalidTo)
	}

	live, _ := m.Get(order.ClientOrderID)
	if live.Status != value.StatusPartiallyFilled {
		t.Errorf("expected status to remain PartiallyFilled after rejected transition, got %s", live.Status)
	}
}

func TestExecutionReportMatchesByVenueOrderIdWithoutClientId(t *testing.T) {
	// Scenario from spec.md §4.4: a venue execution report carrying only
	// its own OrderId, no client order id, must still resolve against the
	// live order bound to that venue id when Submit received it.
	order := testNewOrder(t)
	sub := &fakeSubmitter{orderID: "venue-order-1"}
	m := New(sub)
	m.Submit(context.Background(), order, "res-1", 1)

	_, err := m.OnExecutionReport(value.ExecutionReport{
		OrderID:    "venue-order-1",
		Status:     value.StatusPartiallyFilled,
		FilledSize: value.MustSize("4"),
		TS:         2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	live, _ := m.Get(order.ClientOrderID)
	if live.FilledSize.String() != "4" {
		t.Errorf("expected filled size 4, got %s", live.FilledSize)
	}
	if live.Status != value.StatusPartiallyFilled {
		t.Errorf("expected status PartiallyFilled, got %s", live.Status)
	}
}

func TestCancelUnknownOrderReturnsNotFound(t *testing.T) {
	sub := &fakeSubmitter{}
	m := New(sub)
	if err := m.Cancel(context.Background(), value.ClientOrderId("missing")); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
