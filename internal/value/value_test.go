package value

import "testing"

func TestPriceArithmeticStaysTyped(t *testing.T) {
	p1 := MustPrice("100.50")
	p2 := MustPrice("100.00")

	diff := p1.Sub(p2)
	if diff.String() != "0.5" {
		t.Errorf("expected diff 0.5, got %s", diff.String())
	}

	ratio := p1.Div(p2)
	if !ratio.GreaterThan(MustPrice("1").Decimal()) {
		t.Errorf("expected ratio > 1, got %s", ratio.String())
	}

	notional := p1.Mul(MustSize("2"))
	if notional.String() != "201" {
		t.Errorf("expected notional 201, got %s", notional.String())
	}
}

func TestPriceBpsDiff(t *testing.T) {
	base := MustPrice("100")
	moved := MustPrice("100.5")

	bps := moved.BpsDiff(base)
	if bps.String() != "50" {
		t.Errorf("expected 50 bps, got %s", bps.String())
	}
}

func TestSymbolQuoteAndBaseAsset(t *testing.T) {
	sym, err := NewSymbol("BTCUSDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sym.QuoteAsset() != "USDT" {
		t.Errorf("expected quote asset USDT, got %s", sym.QuoteAsset())
	}
	if sym.BaseAsset() != "BTC" {
		t.Errorf("expected base asset BTC, got %s", sym.BaseAsset())
	}
}

func TestSymbolValidation(t *testing.T) {
	cases := []string{"", "toolongtoolongtoolongtoolong", "btc-usdt"}
	for _, c := range cases {
		if _, err := NewSymbol(c); err == nil {
			t.Errorf("expected error for symbol %q", c)
		}
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	if !StatusNew.CanTransition(StatusPartiallyFilled) {
		t.Error("expected New -> PartiallyFilled to be allowed")
	}
	if !StatusPartiallyFilled.CanTransition(StatusFilled) {
		t.Error("expected PartiallyFilled -> Filled to be allowed")
	}
	if StatusFilled.CanTransition(StatusCancelled) {
		t.Error("expected Filled to be terminal")
	}
	if StatusPartiallyFilled.CanTransition(StatusRejected) {
		t.Error("expected PartiallyFilled -> Rejected to be disallowed per spec")
	}
}

func TestNewOrderValidation(t *testing.T) {
	sym, _ := NewSymbol("BTCUSDT")
	o := NewOrder{Symbol: sym, Side: Buy, Type: Limit, TIF: GTC, Size: MustSize("1")}
	if err := o.Validate(); err != ErrMissingPrice {
		t.Errorf("expected ErrMissingPrice for limit order without price, got %v", err)
	}

	price := MustPrice("100")
	o.Price = &price
	if err := o.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	o.Size = ZeroSize
	if err := o.Validate(); err == nil {
		t.Error("expected error for zero size")
	}
}
