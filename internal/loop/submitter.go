package loop

import (
	"context"
	"fmt"
	"time"

	"github.com/abdoElHodaky/hftcore/internal/monitor"
	"github.com/abdoElHodaky/hftcore/internal/value"
	"github.com/abdoElHodaky/hftcore/internal/venue"
)

// venueSubmitter implements oms.Submitter by routing each call through
// the venue's circuit breaker and recording the round-trip latency the
// arbitrage strategy's tie-break reads. This is where the rate limiter's
// sibling resilience layer lives: the limiter decides whether to attempt
// a request at all, the breaker decides whether the venue is currently
// worth attempting anything against.
type venueSubmitter struct {
	adapters map[value.VenueId]venue.Adapter
	breakers *breakerFactory
	mon      *monitor.Monitor
}

func (s *venueSubmitter) adapterFor(v value.VenueId) (venue.Adapter, error) {
	a, ok := s.adapters[v]
	if !ok {
		return nil, fmt.Errorf("loop: no adapter registered for venue %s", v)
	}
	return a, nil
}

func (s *venueSubmitter) PlaceOrder(ctx context.Context, order value.NewOrder) (value.OrderId, error) {
	a, err := s.adapterFor(order.Venue)
	if err != nil {
		return "", err
	}

	start := time.Now()
	result, err := s.breakers.forVenue(order.Venue).Execute(func() (interface{}, error) {
		return a.PlaceOrder(ctx, order)
	})
	s.mon.ObserveVenueLatency(order.Venue, time.Since(start))
	if err != nil {
		return "", err
	}
	return result.(value.OrderId), nil
}

func (s *venueSubmitter) CancelOrder(ctx context.Context, v value.VenueId, symbol value.Symbol, orderID value.OrderId) error {
	a, err := s.adapterFor(v)
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = s.breakers.forVenue(v).Execute(func() (interface{}, error) {
		return nil, a.CancelOrder(ctx, orderID, symbol)
	})
	s.mon.ObserveVenueLatency(v, time.Since(start))
	return err
}

func (s *venueSubmitter) CancelAllOrders(ctx context.Context, v value.VenueId, symbol value.Symbol) ([]value.OrderId, error) {
	a, err := s.adapterFor(v)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := s.breakers.forVenue(v).Execute(func() (interface{}, error) {
		return a.CancelAllOrders(ctx, symbol)
	})
	s.mon.ObserveVenueLatency(v, time.Since(start))
	if err != nil {
		return nil, err
	}
	return result.([]value.OrderId), nil
}
