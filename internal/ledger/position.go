package ledger

import (
	"github.com/abdoElHodaky/hftcore/internal/value"
	"github.com/shopspring/decimal"
)

// Position is a signed per-symbol inventory, generalizing the teacher's
// internal/risk/position_manager.go PositionManager (which tracked
// per-user, per-symbol float64 quantity/avg-price pairs) into the signed
// decimal model spec.md requires: Size here carries a sign via a plain
// decimal.Decimal rather than value.Size, because inventory can go short.
type Position struct {
	Symbol        value.Symbol
	Size          decimal.Decimal
	AveragePrice  value.Price
	RealizedPnL   decimal.Decimal
	UnrealizedPnL decimal.Decimal
}

func zeroPosition(symbol value.Symbol) Position {
	return Position{Symbol: symbol, Size: decimal.Zero, AveragePrice: value.ZeroPrice, RealizedPnL: decimal.Zero}
}

// applyFill updates Size and AveragePrice for a fill of signedDelta (positive
// for buys, negative for sells) at price. Mirrors the teacher's
// PositionManager.UpdatePosition branch structure (new position, add to
// existing, reduce, close, flip) generalized to decimal signed quantities
// and extended with realized P&L on any reduction.
func (p Position) applyFill(signedDelta decimal.Decimal, price value.Price) Position {
	oldSize := p.Size
	newSize := oldSize.Add(signedDelta)

	switch {
	case oldSize.IsZero():
		p.Size = newSize
		p.AveragePrice = price

	case sameSign(oldSize, signedDelta):
		oldNotional := oldSize.Mul(p.AveragePrice.Decimal())
		addedNotional := signedDelta.Mul(price.Decimal())
		p.Size = newSize
		if !newSize.IsZero() {
			p.AveragePrice = value.PriceFromDecimal(oldNotional.Add(addedNotional).Div(newSize.Abs()).Abs())
		}

	case newSize.IsZero():
		realized := oldSize.Mul(price.Decimal().Sub(p.AveragePrice.Decimal()))
		p.RealizedPnL = p.RealizedPnL.Add(realized)
		p.Size = decimal.Zero
		p.AveragePrice = value.ZeroPrice

	case sameSign(newSize, oldSize):
		reduced := signedDelta.Abs()
		if reduced.GreaterThan(oldSize.Abs()) {
			reduced = oldSize.Abs()
		}
		realized := reduced.Mul(price.Decimal().Sub(p.AveragePrice.Decimal())).Mul(signOf(oldSize))
		p.RealizedPnL = p.RealizedPnL.Add(realized)
		p.Size = newSize

	default:
		// Flipped sign: realize the full old position, open fresh at price.
		realized := oldSize.Abs().Mul(price.Decimal().Sub(p.AveragePrice.Decimal())).Mul(signOf(oldSize))
		p.RealizedPnL = p.RealizedPnL.Add(realized)
		p.Size = newSize
		p.AveragePrice = price
	}

	return p
}

func (p Position) markToMarket(price value.Price) Position {
	if p.Size.IsZero() {
		p.UnrealizedPnL = decimal.Zero
		return p
	}
	p.UnrealizedPnL = p.Size.Mul(price.Decimal().Sub(p.AveragePrice.Decimal()))
	return p
}

func sameSign(a, b decimal.Decimal) bool {
	return (a.Sign() >= 0) == (b.Sign() >= 0)
}

func signOf(d decimal.Decimal) decimal.Decimal {
	if d.Sign() < 0 {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}
