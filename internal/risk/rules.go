// Standard risk rules, generalizing the threshold checks in
// 0xtitan6-polymarket-mm's internal/risk/manager.go (per-market and global
// exposure caps, daily-loss kill switch) and the teacher's
// internal/risk/market_processor.go checkCircuitBreaker price-change ratio
// into the synchronous, pluggable per-order Rule list spec.md §4.3
// requires. Where the source managers run as async aggregators reacting to
// periodic position reports, these rules are pure functions over a single
// order's Context, evaluated inline by the gate.
package risk

import (
	"fmt"
	"time"

	"github.com/abdoElHodaky/hftcore/internal/value"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// MaxOrderSize rejects an order whose size exceeds limit.
type MaxOrderSize struct {
	Limit value.Size
}

func (r MaxOrderSize) Name() string { return KindMaxOrderSize.String() }

func (r MaxOrderSize) Evaluate(ctx Context) *Violation {
	if ctx.Order.Size.GreaterThan(r.Limit) {
		return &Violation{Kind: KindMaxOrderSize, Message: fmt.Sprintf("order size %s exceeds limit %s", ctx.Order.Size, r.Limit)}
	}
	return nil
}

// MaxOrderValue rejects an order whose notional (price x size) exceeds
// limit, using ReferencePrice for market orders.
type MaxOrderValue struct {
	Limit value.Size
}

func (r MaxOrderValue) Name() string { return KindMaxOrderValue.String() }

func (r MaxOrderValue) Evaluate(ctx Context) *Violation {
	notional := ctx.ReferencePrice.Mul(ctx.Order.Size)
	if notional.GreaterThan(r.Limit.Decimal()) {
		return &Violation{Kind: KindMaxOrderValue, Message: fmt.Sprintf("order value %s exceeds limit %s", notional, r.Limit)}
	}
	return nil
}

// MaxPosition rejects an order that would push the symbol's net position
// beyond limit in absolute value.
type MaxPosition struct {
	Limit value.Size
}

func (r MaxPosition) Name() string { return KindMaxPosition.String() }

func (r MaxPosition) Evaluate(ctx Context) *Violation {
	projected := ctx.CurrentPosition.Add(ctx.SignedSize()).Abs()
	if projected.GreaterThan(r.Limit.Decimal()) {
		return &Violation{Kind: KindMaxPosition, Message: fmt.Sprintf("projected position %s exceeds limit %s", projected, r.Limit)}
	}
	return nil
}

// MinBalance rejects an order that would leave the free balance of asset
// below floor once the order's reservation is drawn.
type MinBalance struct {
	Asset string
	Floor value.Size
}

func (r MinBalance) Name() string { return KindMinBalance.String() }

func (r MinBalance) Evaluate(ctx Context) *Violation {
	var free value.Size
	var reserveAmount value.Size
	switch r.Asset {
	case ctx.Order.Symbol.QuoteAsset():
		free = ctx.QuoteFree
		if ctx.Order.Side == value.Buy {
			reserveAmount = value.SizeFromDecimal(ctx.ReferencePrice.Mul(ctx.Order.Size))
		}
	case ctx.Order.Symbol.BaseAsset():
		free = ctx.BaseFree
		if ctx.Order.Side == value.Sell {
			reserveAmount = ctx.Order.Size
		}
	default:
		return &Violation{Kind: KindMinBalance, Message: ErrUnknownAsset.Error()}
	}

	remaining := free.Decimal().Sub(reserveAmount.Decimal())
	if remaining.LessThan(r.Floor.Decimal()) {
		return &Violation{Kind: KindMinBalance, Message: fmt.Sprintf("post-reservation free %s on %s below floor %s", remaining, r.Asset, r.Floor)}
	}
	return nil
}

// DailyLoss rejects any order once the cumulative realized P&L for the
// current UTC day has fallen below -limit.
type DailyLoss struct {
	Limit value.Size
}

func (r DailyLoss) Name() string { return KindDailyLoss.String() }

func (r DailyLoss) Evaluate(ctx Context) *Violation {
	floor := r.Limit.Decimal().Neg()
	if ctx.RealizedPnLToday.LessThan(floor) {
		return &Violation{Kind: KindDailyLoss, Message: fmt.Sprintf("realized pnl today %s below daily loss limit -%s", ctx.RealizedPnLToday, r.Limit)}
	}
	return nil
}

// RateOfChange rejects an order if the reference price has moved more than
// bps from the price observed at the start of the rolling window for the
// order's symbol, guarding against fat-finger venue quotes. Window anchors
// are kept in a TTL cache keyed by symbol, generalizing the teacher's
// checkCircuitBreaker single-struct-per-symbol anchor into an
// auto-expiring entry so a stale anchor resets itself without a separate
// sweep goroutine.
type RateOfChange struct {
	Bps    decimal.Decimal
	Window time.Duration

	anchors *cache.Cache
}

// NewRateOfChange builds a RateOfChange rule with its own anchor cache.
func NewRateOfChange(bps decimal.Decimal, window time.Duration) *RateOfChange {
	return &RateOfChange{Bps: bps, Window: window, anchors: cache.New(window, 2*window)}
}

func (r *RateOfChange) Name() string { return KindRateOfChange.String() }

func (r *RateOfChange) Evaluate(ctx Context) *Violation {
	key := string(ctx.Order.Symbol)
	cached, found := r.anchors.Get(key)
	if !found {
		r.anchors.Set(key, ctx.ReferencePrice, r.Window)
		return nil
	}
	anchor := cached.(value.Price)
	if anchor.IsZero() {
		return nil
	}
	moveBps := ctx.ReferencePrice.BpsDiff(anchor).Abs()
	if moveBps.GreaterThan(r.Bps) {
		return &Violation{Kind: KindRateOfChange, Message: fmt.Sprintf("price moved %s bps from window anchor %s, exceeds %s bps", moveBps, anchor, r.Bps)}
	}
	return nil
}

// KillSwitch rejects every order while Active returns true. Active is a
// function rather than a bool field so the gate always reads the current
// state, including toggles made concurrently from a control channel.
type KillSwitch struct {
	Active func() bool
}

func (r KillSwitch) Name() string { return KindKillSwitch.String() }

func (r KillSwitch) Evaluate(ctx Context) *Violation {
	if r.Active != nil && r.Active() {
		return &Violation{Kind: KindKillSwitch, Message: ErrKillSwitchActive.Error()}
	}
	return nil
}
