// Package venue defines the external adapter contract (C6): the
// interfaces a concrete exchange integration must satisfy to plug into
// the core, and the classified Error sum type every method reports
// failures through. Generalizes the teacher's
// services/exchange/common.Exchange god-interface (one interface
// covering market data, trading, account, compliance, and health for a
// float64-typed REST exchange) by splitting it along the seams spec.md
// §6 names and rebasing every field on the decimal-exact internal/value
// types instead of float64, since a market maker cannot tolerate
// float64 rounding in price/size arithmetic.
package venue

import (
	"context"

	"github.com/abdoElHodaky/hftcore/internal/market"
	"github.com/abdoElHodaky/hftcore/internal/value"
)

// MarketDataStream yields book and trade events for a venue in source
// order. Implementations own reconnection: per spec.md §6, a fresh
// BookSnapshot MUST precede any BookDelta after a reconnect.
type MarketDataStream interface {
	// Events returns a channel of events for the given symbols. The
	// channel is closed when ctx is cancelled or the stream terminates
	// permanently.
	Events(ctx context.Context, symbols []value.Symbol) (<-chan market.MarketEvent, error)
}

// ExecutionStream yields execution reports for orders placed through the
// same venue, in source order.
type ExecutionStream interface {
	Executions(ctx context.Context) (<-chan value.ExecutionReport, error)
}

// Trading is the order-entry surface the rate-limited submitter wraps.
type Trading interface {
	PlaceOrder(ctx context.Context, order value.NewOrder) (value.OrderId, error)
	CancelOrder(ctx context.Context, orderID value.OrderId, symbol value.Symbol) error
	CancelAllOrders(ctx context.Context, symbol value.Symbol) ([]value.OrderId, error)
}

// TimeSource reports the venue's clock for drift monitoring.
type TimeSource interface {
	ServerTime(ctx context.Context) (value.Timestamp, error)
}

// AccountQueries reconciles the shadow ledger against venue-reported
// truth at startup.
type AccountQueries interface {
	Balances(ctx context.Context) (map[string]value.Size, error)
	Positions(ctx context.Context, symbol *value.Symbol) ([]AccountPosition, error)
	OpenOrders(ctx context.Context, symbol *value.Symbol) ([]value.Order, error)
	OrderHistory(ctx context.Context, symbol *value.Symbol, limit int) ([]value.Order, error)
}

// AccountPosition is a venue-reported position, used only to reconcile
// against internal/ledger.Position at startup.
type AccountPosition struct {
	Symbol       value.Symbol
	Size         value.Size
	Side         value.Side
	AveragePrice value.Price
}

// Adapter bundles every surface a concrete venue integration exposes.
// The event loop holds one Adapter per configured venue.
type Adapter interface {
	VenueId() value.VenueId
	MarketDataStream
	ExecutionStream
	Trading
	TimeSource
	AccountQueries
}
