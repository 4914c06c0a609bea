package risk

import (
	"time"

	"github.com/abdoElHodaky/hftcore/internal/value"
	"github.com/shopspring/decimal"
)

// Kind identifies which standard rule produced a Violation.
type Kind int

const (
	KindMaxOrderSize Kind = iota
	KindMaxOrderValue
	KindMaxPosition
	KindMinBalance
	KindDailyLoss
	KindRateOfChange
	KindKillSwitch
)

func (k Kind) String() string {
	switch k {
	case KindMaxOrderSize:
		return "MaxOrderSize"
	case KindMaxOrderValue:
		return "MaxOrderValue"
	case KindMaxPosition:
		return "MaxPosition"
	case KindMinBalance:
		return "MinBalance"
	case KindDailyLoss:
		return "DailyLoss"
	case KindRateOfChange:
		return "RateOfChange"
	case KindKillSwitch:
		return "KillSwitch"
	default:
		return "Unknown"
	}
}

// Violation is the outcome of a failed rule check. It is not an error in
// the fault sense — per spec.md §4.3 it is an expected, recorded rejection
// outcome; the OMS never sees the underlying order.
type Violation struct {
	Kind    Kind
	Message string
}

// Context is the read-only snapshot a rule evaluates against. The gate
// assembles it once per order from an immutable read of the ledger, so a
// rule never observes a partially-applied mutation.
type Context struct {
	Order value.NewOrder

	// ReferencePrice is the price to use for value/rate checks: the order's
	// own limit price, or the venue's best bid/ask for a market order,
	// resolved by the caller before the gate runs.
	ReferencePrice value.Price

	// CurrentPosition is the signed position for Order.Symbol netted across
	// venues, before this order is applied.
	CurrentPosition decimal.Decimal

	// QuoteFree / BaseFree are the free balances of the order's quote and
	// base assets at Order.Venue, before this order's reservation.
	QuoteFree value.Size
	BaseFree  value.Size

	// RealizedPnLToday is the ledger's cumulative realized P&L for the
	// current UTC day.
	RealizedPnLToday decimal.Decimal

	Now time.Time
}

// SignedSize returns the order's size signed by side: positive for buys,
// negative for sells.
func (c Context) SignedSize() decimal.Decimal {
	d := c.Order.Size.Decimal()
	if c.Order.Side == value.Sell {
		return d.Neg()
	}
	return d
}

// Rule is a single pluggable risk check. The gate evaluates an ordered list
// of rules and stops at the first violation.
type Rule interface {
	Name() string
	Evaluate(ctx Context) *Violation
}
