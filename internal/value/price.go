package value

import "github.com/shopspring/decimal"

// Price is an exact-decimal quote price. It deliberately exposes no method
// that mixes it with Size — Sub returns a Price, Div returns a plain ratio,
// and there is no Add(Size) at all, so a caller that tries to combine the
// two types fails at compile time rather than at runtime.
type Price struct {
	d decimal.Decimal
}

// NewPrice builds a Price from a string, e.g. "100.25". Negative and
// unparsable input return an error; zero is allowed for book-removal deltas.
func NewPrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, err
	}
	if d.IsNegative() {
		return Price{}, ErrNegativeValue
	}
	return Price{d: d}, nil
}

// MustPrice panics on invalid input; use only for fixture/test construction.
func MustPrice(s string) Price {
	p, err := NewPrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

// PriceFromDecimal wraps an already-validated decimal.Decimal.
func PriceFromDecimal(d decimal.Decimal) Price {
	return Price{d: d}
}

func (p Price) Decimal() decimal.Decimal { return p.d }

func (p Price) IsZero() bool { return p.d.IsZero() }

// Add returns a Price. Only Price+Price is defined.
func (p Price) Add(o Price) Price { return Price{d: p.d.Add(o.d)} }

// Sub returns a Price: Price − Price → Price.
func (p Price) Sub(o Price) Price { return Price{d: p.d.Sub(o.d)} }

// Div returns a plain ratio: Price ÷ Price → ratio, not a Price.
func (p Price) Div(o Price) decimal.Decimal {
	if o.d.IsZero() {
		return decimal.Zero
	}
	return p.d.Div(o.d)
}

// Mul returns the notional value of this price over a Size: Price × Size →
// decimal, not a Price or a Size.
func (p Price) Mul(s Size) decimal.Decimal { return p.d.Mul(s.d) }

func (p Price) Cmp(o Price) int { return p.d.Cmp(o.d) }

func (p Price) LessThan(o Price) bool    { return p.d.LessThan(o.d) }
func (p Price) GreaterThan(o Price) bool { return p.d.GreaterThan(o.d) }
func (p Price) Equal(o Price) bool       { return p.d.Equal(o.d) }

func (p Price) String() string { return p.d.String() }

// BpsDiff returns (p − base) / base × 10_000, the standard basis-point
// deviation used by spread and rate-of-change calculations.
func (p Price) BpsDiff(base Price) decimal.Decimal {
	if base.d.IsZero() {
		return decimal.Zero
	}
	return p.Sub(base).d.Div(base.d).Mul(decimal.NewFromInt(10000))
}

var (
	// ZeroPrice is the additive identity, safe for comparisons.
	ZeroPrice = Price{d: decimal.Zero}
)
