package value

import "github.com/shopspring/decimal"

// Size is an exact-decimal order/position quantity. Like Price, it has no
// method that accepts a Price — the two types only meet through Price.Mul.
type Size struct {
	d decimal.Decimal
}

func NewSize(s string) (Size, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Size{}, err
	}
	if d.IsNegative() {
		return Size{}, ErrNegativeValue
	}
	return Size{d: d}, nil
}

func MustSize(s string) Size {
	sz, err := NewSize(s)
	if err != nil {
		panic(err)
	}
	return sz
}

func SizeFromDecimal(d decimal.Decimal) Size {
	return Size{d: d}
}

func (s Size) Decimal() decimal.Decimal { return s.d }

func (s Size) IsZero() bool { return s.d.IsZero() }

func (s Size) Add(o Size) Size { return Size{d: s.d.Add(o.d)} }

// Sub returns a Size; callers needing a signed result should use SignedSub.
func (s Size) Sub(o Size) Size { return Size{d: s.d.Sub(o.d)} }

// SignedSub returns the raw (possibly negative) decimal difference, used
// when computing remaining size deltas that must not be clamped.
func (s Size) SignedSub(o Size) decimal.Decimal { return s.d.Sub(o.d) }

func (s Size) Min(o Size) Size {
	if s.d.LessThan(o.d) {
		return s
	}
	return o
}

func (s Size) Cmp(o Size) int { return s.d.Cmp(o.d) }

func (s Size) LessThan(o Size) bool      { return s.d.LessThan(o.d) }
func (s Size) GreaterThan(o Size) bool   { return s.d.GreaterThan(o.d) }
func (s Size) Equal(o Size) bool         { return s.d.Equal(o.d) }
func (s Size) GreaterThanZero() bool     { return s.d.IsPositive() }

func (s Size) String() string { return s.d.String() }

var ZeroSize = Size{d: decimal.Zero}
