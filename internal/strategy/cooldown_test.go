package strategy

import (
	"testing"
	"time"

	"github.com/abdoElHodaky/hftcore/internal/value"
)

func TestCooldownSuppressesWithinWindow(t *testing.T) {
	symbol, _ := value.NewSymbol("BTCUSDT")
	venue, _ := value.NewVenueId("BINANCE")
	c := newCooldownTracker(100 * time.Millisecond)

	if !c.allow(symbol, venue, value.Buy, 1000) {
		t.Error("expected first signal to be allowed")
	}
	if c.allow(symbol, venue, value.Buy, 1050) {
		t.Error("expected signal within cooldown window to be suppressed")
	}
	if !c.allow(symbol, venue, value.Buy, 1101) {
		t.Error("expected signal after cooldown window to be allowed")
	}
}

func TestCooldownIndependentPerSide(t *testing.T) {
	symbol, _ := value.NewSymbol("BTCUSDT")
	venue, _ := value.NewVenueId("BINANCE")
	c := newCooldownTracker(100 * time.Millisecond)

	c.allow(symbol, venue, value.Buy, 1000)
	if !c.allow(symbol, venue, value.Sell, 1010) {
		t.Error("expected the opposite side's cooldown to be independent")
	}
}
