// Package loop implements the event loop (C9): it owns market state, the
// strategy engine, the shadow ledger, the risk gate, the order manager,
// the rate limiter registry, and the performance monitor, and wires them
// into the single ordered pipeline spec.md §4.6 describes. Per-key
// dispatch (one in-flight task per (venue, symbol) key, cross-key
// concurrency otherwise) is grounded on the teacher's
// internal/strategy/optimized_framework.go ParallelStrategyManager, which
// submits work to a panjf2000/ants/v2 pool and tracks completion with a
// sync.WaitGroup; generalized here from strategy-internal fan-out to the
// loop's own key-sharded dispatch. Outbound venue submission is wrapped in
// a per-venue sony/gobreaker.CircuitBreaker (breaker.go), grounded on the
// teacher's internal/architecture/fx/resilience/circuit_breaker.go
// CircuitBreakerFactory.
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/hftcore/internal/ledger"
	"github.com/abdoElHodaky/hftcore/internal/market"
	"github.com/abdoElHodaky/hftcore/internal/monitor"
	"github.com/abdoElHodaky/hftcore/internal/oms"
	"github.com/abdoElHodaky/hftcore/internal/ratelimit"
	"github.com/abdoElHodaky/hftcore/internal/risk"
	"github.com/abdoElHodaky/hftcore/internal/strategy"
	"github.com/abdoElHodaky/hftcore/internal/value"
	"github.com/abdoElHodaky/hftcore/internal/venue"
)

// Config carries the loop's own tunables, separate from the components it
// wires together (those are constructed by the caller and passed to New).
type Config struct {
	// MaxWorkers bounds the ants pool; defaults to 10 when <= 0.
	MaxWorkers int
	// GraceShutdown bounds how long shutdown waits for in-flight signals
	// to drain before cancelling live orders and aborting; defaults to
	// 2s when <= 0.
	GraceShutdown time.Duration
}

// Loop is the single-writer core described by spec.md §4.6/§5. Market
// state is mutated on Run's goroutine before a market event's task is
// dispatched; the ledger and the OMS are mutated from inside the loop's
// dispatched tasks.
type Loop struct {
	market   *market.State
	engine   *strategy.Engine
	ledger   *ledger.Ledger
	gate     *risk.Gate
	oms      *oms.Manager
	limiters *ratelimit.Registry
	mon      *monitor.Monitor
	adapters map[value.VenueId]venue.Adapter
	breakers *breakerFactory
	logger   *zap.Logger

	pool          *ants.Pool
	graceShutdown time.Duration

	keyMu sync.Map // market.Key -> *sync.Mutex
	wg    sync.WaitGroup

	killSwitch atomic.Bool
}

// New wires a Loop over already-constructed components. adapters must
// contain one venue.Adapter per venue any strategy or cross-venue
// arbitrage config references; a signal destined for an unregistered
// venue fails at submission time rather than at construction time, since
// strategies are free to reference a venue added after startup.
func New(
	state *market.State,
	engine *strategy.Engine,
	led *ledger.Ledger,
	gate *risk.Gate,
	limiters *ratelimit.Registry,
	mon *monitor.Monitor,
	adapters map[value.VenueId]venue.Adapter,
	logger *zap.Logger,
	cfg Config,
) (*Loop, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	pool, err := ants.NewPool(maxWorkers)
	if err != nil {
		return nil, fmt.Errorf("loop: create worker pool: %w", err)
	}

	grace := cfg.GraceShutdown
	if grace <= 0 {
		grace = 2 * time.Second
	}

	breakers := newBreakerFactory(logger)

	l := &Loop{
		market:        state,
		engine:        engine,
		ledger:        led,
		gate:          gate,
		limiters:      limiters,
		mon:           mon,
		adapters:      adapters,
		breakers:      breakers,
		logger:        logger,
		pool:          pool,
		graceShutdown: grace,
	}
	l.oms = oms.New(&venueSubmitter{adapters: adapters, breakers: breakers, mon: mon})

	state.OnStaleDelta = func(v value.VenueId, s value.Symbol) {
		mon.StaleDeltaTotal.WithLabelValues(v.String(), s.String()).Inc()
	}
	state.OnCrossed = func(v value.VenueId, s value.Symbol) {
		mon.BookCrossedEvents.WithLabelValues(v.String(), s.String()).Inc()
	}

	return l, nil
}

// KillSwitchActive reports whether the kill switch is currently active.
// Wire this into a risk.KillSwitch rule's Active field at construction so
// the gate itself rejects new orders while the switch is on; the loop
// keeps consuming market events and execution reports regardless, per
// spec.md §5's "in-process shutdown for order submission only".
func (l *Loop) KillSwitchActive() bool { return l.killSwitch.Load() }

// Run consumes market events, execution reports, and control events until
// ctx is cancelled or a ControlShutdown event arrives, then drains and
// returns.
func (l *Loop) Run(
	ctx context.Context,
	marketEvents <-chan market.MarketEvent,
	execReports <-chan value.ExecutionReport,
	control <-chan ControlEvent,
) error {
	decay := time.NewTicker(time.Minute)
	defer decay.Stop()

	for {
		select {
		case <-ctx.Done():
			return l.shutdown(context.Background())

		case <-decay.C:
			l.limiters.DecayAll()

		case evt, ok := <-marketEvents:
			if !ok {
				marketEvents = nil
				continue
			}
			l.dispatchMarketEvent(ctx, evt)

		case report, ok := <-execReports:
			if !ok {
				execReports = nil
				continue
			}
			l.dispatchExecutionReport(ctx, report)

		case ctrl, ok := <-control:
			if !ok {
				control = nil
				continue
			}
			switch ctrl.Kind {
			case ControlShutdown:
				return l.shutdown(ctx)
			case ControlKillSwitchToggle:
				l.killSwitch.Store(ctrl.KillSwitchActive)
				l.logger.Info("kill switch toggled", zap.Bool("active", ctrl.KillSwitchActive))
			case ControlConfigReload:
				l.logger.Info("config reload requested, ignored: loop has no hot-reloadable state")
			}
		}
	}
}

func (l *Loop) muFor(key market.Key) *sync.Mutex {
	v, _ := l.keyMu.LoadOrStore(key, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// dispatchMarketEvent applies evt's book/trade mutation on Run's own
// goroutine, before handing the rest of the work (strategy dispatch,
// signal handling) to the pool. Same-key events arrive on marketEvents in
// receipt order and Run's select loop consumes them one at a time, so
// applying the mutation here preserves that order; submitting the
// mutation itself into the pool would not, since sync.Mutex does not
// guarantee FIFO acquisition and a later-received same-key event could
// run its mutation first.
func (l *Loop) dispatchMarketEvent(ctx context.Context, evt market.MarketEvent) {
	applied, ok := l.applyMarketEvent(evt)
	if !ok {
		return
	}

	mu := l.muFor(market.Key{Venue: evt.Venue, Symbol: evt.Symbol})
	l.wg.Add(1)
	err := l.pool.Submit(func() {
		defer l.wg.Done()
		mu.Lock()
		defer mu.Unlock()
		l.processMarketEvent(ctx, evt, applied)
	})
	if err != nil {
		l.wg.Done()
		l.logger.Error("submit market event task", zap.Error(err))
	}
}

// applyMarketEvent mutates market state for evt and reports whether evt
// was a recognized kind. market.State is safe for concurrent use across
// keys on its own (see market.State's doc comment), so calling this
// directly from Run's goroutine does not need the per-key mutex.
func (l *Loop) applyMarketEvent(evt market.MarketEvent) (market.MarketEvent, bool) {
	switch evt.Kind {
	case market.EventBookSnapshot:
		return l.market.ApplySnapshot(evt.Venue, evt.Symbol, evt.Bids, evt.Asks, evt.TS), true
	case market.EventBookDelta:
		return l.market.ApplyDelta(evt.Venue, evt.Symbol, evt.Bids, evt.Asks, evt.TS), true
	case market.EventTrade:
		return l.market.ApplyTrade(evt.Venue, evt.Symbol, evt.Trade), true
	default:
		return market.MarketEvent{}, false
	}
}

func (l *Loop) dispatchExecutionReport(ctx context.Context, report value.ExecutionReport) {
	mu := l.muFor(market.Key{Venue: report.Venue, Symbol: report.Symbol})
	l.wg.Add(1)
	err := l.pool.Submit(func() {
		defer l.wg.Done()
		mu.Lock()
		defer mu.Unlock()
		l.processExecutionReport(ctx, report)
	})
	if err != nil {
		l.wg.Done()
		l.logger.Error("submit execution report task", zap.Error(err))
	}
}

// processMarketEvent runs the rest of market event handling once
// applyMarketEvent has already mutated state on Run's goroutine: it reads
// the resulting view, marks the ledger to market, and dispatches the
// event to every interested strategy.
func (l *Loop) processMarketEvent(ctx context.Context, evt, applied market.MarketEvent) {
	view, ok := l.market.Snapshot(evt.Venue, evt.Symbol)
	if !ok {
		return
	}

	if view.HasBid && view.HasAsk {
		mid := view.BestBid.Price.Add(view.BestAsk.Price).Decimal().Div(decimal.NewFromInt(2))
		l.ledger.MarkToMarket(evt.Symbol, value.PriceFromDecimal(mid))
		l.publishRealizedPnL(evt.Symbol)
	}

	for _, sig := range l.engine.Dispatch(applied, view) {
		l.handleSignal(ctx, sig, view)
	}
}

func (l *Loop) processExecutionReport(ctx context.Context, report value.ExecutionReport) {
	prevFilled := value.ZeroSize
	var reservation value.ReservationId
	hadReservation := false
	if live, ok := l.oms.Get(report.ClientOrderID); ok {
		prevFilled = live.FilledSize
		reservation = live.Reservation
		hadReservation = reservation != ""
	}

	live, err := l.oms.OnExecutionReport(report)
	if err != nil {
		l.logger.Debug("execution report discarded",
			zap.String("client_order_id", report.ClientOrderID.String()), zap.Error(err))
		return
	}

	deltaDecimal := report.FilledSize.SignedSub(prevFilled)
	if deltaDecimal.IsPositive() {
		fillPrice := value.ZeroPrice
		if report.AveragePrice != nil {
			fillPrice = *report.AveragePrice
		}
		var resID *value.ReservationId
		if hadReservation {
			resID = &reservation
		}
		if err := l.ledger.ApplyFill(report.Venue, report.Symbol, live.Side, resID, value.SizeFromDecimal(deltaDecimal), fillPrice); err != nil {
			l.logger.Error("apply fill failed",
				zap.String("client_order_id", report.ClientOrderID.String()), zap.Error(err))
		}
		l.mon.OrdersFilled.WithLabelValues(report.Venue.String(), report.Symbol.String(), string(live.Side)).Inc()
		l.publishRealizedPnL(report.Symbol)
	}

	if report.Status.IsTerminal() && hadReservation {
		if err := l.ledger.Release(reservation); err != nil && !errors.Is(err, ledger.ErrReservationNotFound) {
			l.logger.Debug("release reservation on terminal report failed", zap.Error(err))
		}
		switch report.Status {
		case value.StatusCancelled:
			l.mon.OrdersCancelled.WithLabelValues(report.Venue.String(), report.Symbol.String()).Inc()
		case value.StatusRejected, value.StatusExpired:
			l.mon.OrdersRejected.WithLabelValues(report.Venue.String(), report.Symbol.String(), string(report.Status)).Inc()
		}
	}

	for _, sig := range l.engine.DispatchExecution(report) {
		l.handleSignal(ctx, sig, market.View{})
	}
}

func (l *Loop) publishRealizedPnL(symbol value.Symbol) {
	pos := l.ledger.Position(symbol)
	l.mon.RealizedPnL.WithLabelValues(symbol.String()).Set(pos.RealizedPnL.InexactFloat64())
}

func (l *Loop) handleSignal(ctx context.Context, sig value.Signal, view market.View) {
	switch sig.Kind {
	case value.SignalPlaceOrder:
		l.handlePlaceOrder(ctx, sig.Order, view)
	case value.SignalCancelOrder:
		l.limiters.For(sig.Venue).AllowCancel()
		if err := l.oms.Cancel(ctx, sig.OrderID); err != nil {
			l.logger.Debug("cancel signal failed", zap.String("client_order_id", sig.OrderID.String()), zap.Error(err))
		}
	case value.SignalCancelAllOrders:
		l.limiters.For(sig.Venue).AllowCancel()
		if _, err := l.oms.CancelAll(ctx, sig.Venue, sig.Symbol); err != nil {
			l.logger.Warn("cancel-all signal failed",
				zap.String("venue", sig.Venue.String()), zap.String("symbol", sig.Symbol.String()), zap.Error(err))
		}
	case value.SignalUpdateOrder:
		l.handleUpdateOrder(ctx, sig)
	}
}

func (l *Loop) handlePlaceOrder(ctx context.Context, order value.NewOrder, view market.View) {
	if view.Venue != order.Venue || view.Symbol != order.Symbol {
		view, _ = l.market.Snapshot(order.Venue, order.Symbol)
	}
	refPrice := referencePrice(order, view)

	start := time.Now()
	approval, violation := l.gate.Evaluate(order, refPrice)
	l.mon.RiskApprovalLatency.WithLabelValues(order.Symbol.String()).Observe(time.Since(start).Seconds())

	if violation != nil {
		l.mon.RejectedByRisk.WithLabelValues(violation.Kind.String()).Inc()
		l.logger.Debug("order rejected by risk gate",
			zap.String("rule", violation.Kind.String()), zap.String("message", violation.Message))
		return
	}

	if !l.limiters.For(order.Venue).Allow() || !l.limiters.AllowBurst(order.Venue, order.Symbol) {
		if err := l.ledger.Release(approval.ReservationID); err != nil {
			l.logger.Debug("release after rate limit rejection failed", zap.Error(err))
		}
		l.mon.OrdersRejected.WithLabelValues(order.Venue.String(), order.Symbol.String(), "rate_limited").Inc()
		return
	}

	_, err := l.oms.Submit(ctx, order, approval.ReservationID, value.Now())
	l.mon.OrdersSubmitted.WithLabelValues(order.Venue.String(), order.Symbol.String(), string(order.Side)).Inc()
	if err != nil {
		var venueErr *venue.Error
		if errors.As(err, &venueErr) {
			if venueErr.Kind == venue.RateLimited {
				l.limiters.For(order.Venue).OnRateLimited()
			}
			l.mon.OrdersRejected.WithLabelValues(order.Venue.String(), order.Symbol.String(), venueErr.Kind.String()).Inc()
		} else {
			l.mon.OrdersRejected.WithLabelValues(order.Venue.String(), order.Symbol.String(), "unknown").Inc()
		}
		if releaseErr := l.ledger.Release(approval.ReservationID); releaseErr != nil {
			l.logger.Debug("release after submit failure failed", zap.Error(releaseErr))
		}
		l.logger.Warn("order submission failed",
			zap.String("venue", order.Venue.String()), zap.String("symbol", order.Symbol.String()), zap.Error(err))
	}
}

func (l *Loop) handleUpdateOrder(ctx context.Context, sig value.Signal) {
	live, ok := l.oms.Get(sig.OrderID)
	if !ok {
		l.logger.Debug("update signal for unknown order, dropping", zap.String("client_order_id", sig.OrderID.String()))
		return
	}

	l.limiters.For(sig.Venue).AllowCancel()
	if err := l.oms.Cancel(ctx, sig.OrderID); err != nil {
		l.logger.Debug("cancel-for-update failed", zap.String("client_order_id", sig.OrderID.String()), zap.Error(err))
		return
	}

	amended := live.NewOrder
	amended.ClientOrderID = value.NewClientOrderId(sig.Venue, sig.Symbol)
	if sig.NewPrice != nil {
		amended.Price = sig.NewPrice
	}
	if sig.NewSize != nil {
		amended.Size = *sig.NewSize
	}

	view, _ := l.market.Snapshot(sig.Venue, sig.Symbol)
	l.handlePlaceOrder(ctx, amended, view)
}

// referencePrice resolves the price a risk rule should evaluate against:
// the order's own limit price, or the venue's best opposing-side quote for
// a market order.
func referencePrice(order value.NewOrder, view market.View) value.Price {
	if order.Price != nil {
		return *order.Price
	}
	if order.Side == value.Buy && view.HasAsk {
		return view.BestAsk.Price
	}
	if order.Side == value.Sell && view.HasBid {
		return view.BestBid.Price
	}
	return value.ZeroPrice
}

// shutdown implements spec.md §5's cancellation semantics: stop accepting
// new market events (the caller's Run loop has already returned here so
// nothing further is dispatched), drain the in-flight signal set up to
// the grace period, cancel every live order, then return regardless of
// whether cancellation has been confirmed yet.
func (l *Loop) shutdown(ctx context.Context) error {
	l.logger.Info("loop shutdown: draining in-flight work")

	drained := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-time.After(l.graceShutdown):
		l.logger.Warn("grace period elapsed before in-flight work drained")
	}

	l.logger.Info("loop shutdown: cancelling live orders")
	for _, live := range l.oms.LiveOrders() {
		if live.Status.IsTerminal() {
			continue
		}
		if err := l.oms.Cancel(ctx, live.ClientOrderID); err != nil {
			l.logger.Warn("shutdown cancel failed",
				zap.String("client_order_id", live.ClientOrderID.String()), zap.Error(err))
		}
	}

	l.pool.Release()
	return nil
}
