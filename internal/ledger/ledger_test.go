package ledger

import (
	"testing"

	"github.com/abdoElHodaky/hftcore/internal/value"
	"github.com/shopspring/decimal"
)

func testVenueSymbol(t *testing.T) (value.VenueId, value.Symbol) {
	t.Helper()
	venue, err := value.NewVenueId("BINANCE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	symbol, err := value.NewSymbol("BTCUSDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return venue, symbol
}

func TestReserveAndReleaseRestoresFree(t *testing.T) {
	l := New()
	venue, _ := testVenueSymbol(t)
	l.SeedBalance(venue, "USDT", value.MustSize("1000"))

	id, err := l.Reserve(venue, "USDT", value.MustSize("100"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bal := l.Balance(venue, "USDT")
	if bal.Free.String() != "900" || bal.Used.String() != "100" {
		t.Fatalf("unexpected balance after reserve: %+v", bal)
	}

	if err := l.Release(id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bal = l.Balance(venue, "USDT")
	if bal.Free.String() != "1000" || !bal.Used.IsZero() {
		t.Fatalf("expected full release, got %+v", bal)
	}
}

func TestReserveInsufficientFreeRejected(t *testing.T) {
	l := New()
	venue, _ := testVenueSymbol(t)
	l.SeedBalance(venue, "USDT", value.MustSize("50"))

	if _, err := l.Reserve(venue, "USDT", value.MustSize("100")); err != ErrInsufficientFree {
		t.Errorf("expected ErrInsufficientFree, got %v", err)
	}
}

func TestApplyFillBuyDebitsQuoteCreditsBase(t *testing.T) {
	l := New()
	venue, symbol := testVenueSymbol(t)
	l.SeedBalance(venue, "USDT", value.MustSize("10000"))

	id, err := l.Reserve(venue, "USDT", value.MustSize("1000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := l.ApplyFill(venue, symbol, value.Buy, &id, value.MustSize("1"), value.MustPrice("1000")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	quote := l.Balance(venue, "USDT")
	base := l.Balance(venue, "BTC")
	if quote.Total.String() != "9000" {
		t.Errorf("expected quote total 9000 after fill, got %s", quote.Total.String())
	}
	if base.Total.String() != "1" {
		t.Errorf("expected base total 1 after fill, got %s", base.Total.String())
	}

	pos := l.Position(symbol)
	if pos.Size.String() != "1" || pos.AveragePrice.String() != "1000" {
		t.Errorf("unexpected position after fill: %+v", pos)
	}
}

func TestPartialFillThenCancelReleasesRemainder(t *testing.T) {
	// Mirrors scenario E4: order for size 10 partially fills 4, then the
	// remainder is cancelled and the reservation for the unfilled 6 is
	// released back to free.
	l := New()
	venue, symbol := testVenueSymbol(t)
	l.SeedBalance(venue, "USDT", value.MustSize("100000"))

	id, err := l.Reserve(venue, "USDT", value.MustSize("10000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := l.ApplyFill(venue, symbol, value.Buy, &id, value.MustSize("4"), value.MustPrice("1000")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	remaining, ok := l.ReservationAmount(id)
	if !ok || remaining.String() != "6000" {
		t.Fatalf("expected remaining reservation 6000, got %s ok=%v", remaining, ok)
	}

	if err := l.Release(id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	quote := l.Balance(venue, "USDT")
	if quote.Free.String() != "96000" {
		t.Errorf("expected free 96000 after partial fill + cancel, got %s", quote.Free.String())
	}
	if !quote.Used.IsZero() {
		t.Errorf("expected used balance zero after full release, got %s", quote.Used.String())
	}
}

func TestReservationConservationProperty(t *testing.T) {
	l := New()
	venue, _ := testVenueSymbol(t)
	l.SeedBalance(venue, "USDT", value.MustSize("1000"))

	id1, _ := l.Reserve(venue, "USDT", value.MustSize("100"))
	id2, _ := l.Reserve(venue, "USDT", value.MustSize("200"))

	bal := l.Balance(venue, "USDT")
	sum := value.ZeroSize
	if a, ok := l.ReservationAmount(id1); ok {
		sum = sum.Add(a)
	}
	if a, ok := l.ReservationAmount(id2); ok {
		sum = sum.Add(a)
	}
	if !sum.Equal(bal.Used) {
		t.Errorf("expected sum of reservations %s to equal used balance %s", sum, bal.Used)
	}
}

func TestSellFillReducesPositionAndRealizesPnL(t *testing.T) {
	l := New()
	venue, symbol := testVenueSymbol(t)
	l.SeedBalance(venue, "USDT", value.MustSize("1000"))

	if err := l.ApplyFill(venue, symbol, value.Buy, nil, value.MustSize("2"), value.MustPrice("100")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := l.ApplyFill(venue, symbol, value.Sell, nil, value.MustSize("1"), value.MustPrice("110")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := l.Position(symbol)
	if pos.Size.String() != "1" {
		t.Errorf("expected remaining position size 1, got %s", pos.Size.String())
	}
	if !pos.RealizedPnL.GreaterThan(decimal.Zero) {
		t.Errorf("expected positive realized pnl, got %s", pos.RealizedPnL)
	}

	realizedToday := l.RealizedPnLToday()
	if realizedToday.IsZero() {
		t.Error("expected non-zero realized pnl for today")
	}
}
