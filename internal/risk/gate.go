// Package risk implements the synchronous risk gate (C6): an ordered list
// of pluggable rules evaluated between strategy signal emission and OMS
// submission, with atomic approve-and-reserve semantics against the
// shadow ledger.
package risk

import (
	"time"

	"github.com/abdoElHodaky/hftcore/internal/ledger"
	"github.com/abdoElHodaky/hftcore/internal/value"
)

// Gate evaluates an ordered rule list for every order before it reaches the
// order manager. Rule order matters: evaluation stops at the first
// violation, so cheap/fast-reject rules (size, kill switch) should precede
// rules that need ledger reads (balance, position, P&L).
type Gate struct {
	rules  []Rule
	ledger *ledger.Ledger
}

// New builds a gate over ledger with rules evaluated in the given order.
func New(l *ledger.Ledger, rules ...Rule) *Gate {
	return &Gate{rules: rules, ledger: l}
}

// Approval is returned on successful evaluation: the reservation has
// already been created against the ledger.
type Approval struct {
	ReservationID value.ReservationId
	Asset         string
	Amount        value.Size
}

// Evaluate runs every rule against order in order, using refPrice as the
// order's own limit price or, for a market order, the venue's best
// opposing-side price supplied by the caller. On approval it atomically
// reserves the required asset amount against the ledger and returns the
// reservation alongside nil. On the first rule violation, evaluation stops
// and the violation is returned; no reservation is created.
func (g *Gate) Evaluate(order value.NewOrder, refPrice value.Price) (*Approval, *Violation) {
	ctx := g.buildContext(order, refPrice)

	for _, rule := range g.rules {
		if v := rule.Evaluate(ctx); v != nil {
			return nil, v
		}
	}

	asset, amount := reservationTarget(order, refPrice)
	id, err := g.ledger.Reserve(order.Venue, asset, amount)
	if err != nil {
		return nil, &Violation{Kind: KindMinBalance, Message: err.Error()}
	}
	return &Approval{ReservationID: id, Asset: asset, Amount: amount}, nil
}

func (g *Gate) buildContext(order value.NewOrder, refPrice value.Price) Context {
	pos := g.ledger.Position(order.Symbol)
	quoteFree := g.ledger.Balance(order.Venue, order.Symbol.QuoteAsset()).Free
	baseFree := g.ledger.Balance(order.Venue, order.Symbol.BaseAsset()).Free

	return Context{
		Order:            order,
		ReferencePrice:   refPrice,
		CurrentPosition:  pos.Size,
		QuoteFree:        quoteFree,
		BaseFree:         baseFree,
		RealizedPnLToday: g.ledger.RealizedPnLToday(),
		Now:              time.Now(),
	}
}

// reservationTarget returns the (asset, amount) the gate must reserve on
// approval: the quote asset notional for a buy, the base asset size for a
// sell.
func reservationTarget(order value.NewOrder, refPrice value.Price) (string, value.Size) {
	if order.Side == value.Buy {
		return order.Symbol.QuoteAsset(), value.SizeFromDecimal(refPrice.Mul(order.Size))
	}
	return order.Symbol.BaseAsset(), order.Size
}
