// Package monitor implements the performance monitor (C10): the
// Prometheus metrics the event loop, OMS, risk gate, and book update
// path all report to, plus the per-venue latency score the cross-venue
// arbitrage strategy uses to break profit ties. Grounded on the
// teacher's internal/trading/app/app.go initMetrics (CounterVec /
// HistogramVec / GaugeVec built with prometheus.New*Vec and registered
// via prometheus.MustRegister), generalized from four HTTP-request
// metrics into the trading-specific metric set spec.md §4.6 names.
package monitor

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/abdoElHodaky/hftcore/internal/value"
)

// Monitor owns every metric the core reports and the rolling per-venue
// latency table the arbitrage strategy's tie-break reads.
type Monitor struct {
	OrdersSubmitted      *prometheus.CounterVec
	OrdersFilled         *prometheus.CounterVec
	OrdersCancelled      *prometheus.CounterVec
	OrdersRejected       *prometheus.CounterVec
	RejectedByRisk       *prometheus.CounterVec
	RiskApprovalLatency  *prometheus.HistogramVec
	BookCrossedEvents    *prometheus.CounterVec
	StaleDeltaTotal      *prometheus.CounterVec
	RealizedPnL          *prometheus.GaugeVec
	VenueLatency         *prometheus.HistogramVec

	mu      sync.RWMutex
	latency map[value.VenueId]time.Duration
}

// New creates every metric and registers it against reg. Pass
// prometheus.NewRegistry() in tests to avoid colliding with the default
// global registry across parallel test processes; pass
// prometheus.DefaultRegisterer in production.
func New(reg prometheus.Registerer) *Monitor {
	m := &Monitor{
		OrdersSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_submitted_total",
			Help: "Total number of orders submitted to a venue.",
		}, []string{"venue", "symbol", "side"}),

		OrdersFilled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_filled_total",
			Help: "Total number of execution reports that added filled size to an order, partial fills included.",
		}, []string{"venue", "symbol", "side"}),

		OrdersCancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_cancelled_total",
			Help: "Total number of orders cancelled.",
		}, []string{"venue", "symbol"}),

		OrdersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_rejected_total",
			Help: "Total number of orders rejected or expired, by the venue or by the local rate limiter, by reason.",
		}, []string{"venue", "symbol", "reason"}),

		RejectedByRisk: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rejected_by_risk_total",
			Help: "Total number of orders rejected by the risk gate, by rule.",
		}, []string{"rule"}),

		RiskApprovalLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "risk_approval_latency_seconds",
			Help:    "Time spent evaluating an order against the risk gate.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 16),
		}, []string{"symbol"}),

		BookCrossedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "book_crossed_events_total",
			Help: "Total number of deltas that left a book transiently crossed.",
		}, []string{"venue", "symbol"}),

		StaleDeltaTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stale_delta_total",
			Help: "Total number of deltas rejected for being older than the book's last update.",
		}, []string{"venue", "symbol"}),

		RealizedPnL: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "realized_pnl",
			Help: "Cumulative realized P&L by symbol.",
		}, []string{"symbol"}),

		VenueLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "venue_latency_seconds",
			Help:    "Observed round-trip latency to a venue.",
			Buckets: prometheus.DefBuckets,
		}, []string{"venue"}),

		latency: make(map[value.VenueId]time.Duration),
	}

	reg.MustRegister(
		m.OrdersSubmitted, m.OrdersFilled, m.OrdersCancelled, m.OrdersRejected,
		m.RejectedByRisk, m.RiskApprovalLatency, m.BookCrossedEvents,
		m.StaleDeltaTotal, m.RealizedPnL, m.VenueLatency,
	)
	return m
}

// ObserveVenueLatency records a round-trip latency sample for venue and
// updates the rolling score the arbitrage tie-break reads.
func (m *Monitor) ObserveVenueLatency(venue value.VenueId, d time.Duration) {
	m.VenueLatency.WithLabelValues(venue.String()).Observe(d.Seconds())
	m.mu.Lock()
	m.latency[venue] = d
	m.mu.Unlock()
}

// LatencyScore implements strategy.LatencyScorer: the most recently
// observed round-trip latency for venue, or zero if none has been
// recorded yet (an untested venue is not penalized).
func (m *Monitor) LatencyScore(venue value.VenueId) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latency[venue]
}
