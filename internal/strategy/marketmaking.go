package strategy

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/abdoElHodaky/hftcore/internal/ledger"
	"github.com/abdoElHodaky/hftcore/internal/market"
	"github.com/abdoElHodaky/hftcore/internal/value"
)

// MMConfig configures a single MarketMakingStrategy instance, one per
// (symbol, venue) pair, per spec.md §4.2.1.
type MMConfig struct {
	Symbol value.Symbol
	Venue  value.VenueId

	SpreadBps    decimal.Decimal
	MinSpreadBps decimal.Decimal
	MaxSpreadBps decimal.Decimal

	OrderSize            value.Size
	MaxPosition          value.Size
	TargetInventoryRatio decimal.Decimal
	SkewCoeff            decimal.Decimal

	Levels   int
	TickSize value.Price

	// PriceTolerance suppresses a re-quote when every level's new price is
	// within this amount of the previous quote set, per step 7.
	PriceTolerance value.Price

	Cooldown time.Duration
}

// quotedLevel is one resting quote the strategy believes is live.
type quotedLevel struct {
	Side  value.Side
	Price value.Price
	Size  value.Size
}

// MarketMakingStrategy implements spec.md §4.2.1: a symmetric two-sided
// quoting strategy that widens the side carrying excess inventory to
// encourage mean reversion. Grounded on the teacher's
// internal/strategies/market_making.go MarketMakingStrategy
// (spread-from-mid, position-scaled quantity skew, cancel-then-replace
// refresh cycle), generalized from a single best-bid/best-ask/float64
// quantity-skew model to spec.md's bps-based price skew, quote ladder,
// and aggressive-side suppression — none of which the teacher version
// has, since it skews size rather than price and carries no position cap.
// The skew is centred on a flat position: MMConfig.TargetInventoryRatio
// is not read by the quote computation.
type MarketMakingStrategy struct {
	cfg    MMConfig
	ledger *ledger.Ledger

	cooldown   *cooldownTracker
	lastQuotes []quotedLevel
	metrics    Metrics
}

// NewMarketMakingStrategy creates a market-making strategy reading
// position state from l.
func NewMarketMakingStrategy(cfg MMConfig, l *ledger.Ledger) *MarketMakingStrategy {
	return &MarketMakingStrategy{
		cfg:      cfg,
		ledger:   l,
		cooldown: newCooldownTracker(cfg.Cooldown),
	}
}

func (s *MarketMakingStrategy) OnEvent(event market.MarketEvent, view market.View) []value.Signal {
	if event.Venue != s.cfg.Venue || event.Symbol != s.cfg.Symbol {
		return nil
	}
	if event.Kind != market.EventBookSnapshot && event.Kind != market.EventBookDelta {
		return nil
	}
	s.metrics.EventsHandled++
	return s.requote(view, event.TS)
}

func (s *MarketMakingStrategy) Tick(now value.Timestamp) []value.Signal {
	return nil
}

func (s *MarketMakingStrategy) OnExecution(report value.ExecutionReport) []value.Signal {
	return nil
}

// requote recomputes the quote ladder per spec.md §4.2.1 steps 1-7 and
// emits a cancel-all-then-place signal batch, unless the new ladder is
// within PriceTolerance of the previous one or the cooldown suppresses it.
func (s *MarketMakingStrategy) requote(view market.View, ts value.Timestamp) []value.Signal {
	if !view.HasBid || !view.HasAsk {
		return nil
	}

	mid := midPrice(view.BestBid.Price, view.BestAsk.Price)
	currentSpreadBps := view.BestAsk.Price.BpsDiff(view.BestBid.Price)

	halfSpreadBps := decimal.Max(s.cfg.SpreadBps, currentSpreadBps).Div(decimal.NewFromInt(2))
	minHalf := s.cfg.MinSpreadBps.Div(decimal.NewFromInt(2))
	maxHalf := s.cfg.MaxSpreadBps.Div(decimal.NewFromInt(2))

	position := s.ledger.Position(s.cfg.Symbol).Size
	inventoryRatio := clampRatio(position.Div(s.cfg.MaxPosition.Decimal()))

	skew := s.cfg.SkewCoeff.Mul(inventoryRatio)
	bidOffsetBps := clampBps(halfSpreadBps.Mul(decimal.NewFromInt(1).Add(skew)), minHalf, maxHalf)
	askOffsetBps := clampBps(halfSpreadBps.Mul(decimal.NewFromInt(1).Sub(skew)), minHalf, maxHalf)

	bidOffset := value.PriceFromDecimal(mid.Decimal().Mul(bidOffsetBps).Div(decimal.NewFromInt(10000)))
	askOffset := value.PriceFromDecimal(mid.Decimal().Mul(askOffsetBps).Div(decimal.NewFromInt(10000)))

	suppressBid := position.Add(s.cfg.OrderSize.Decimal()).GreaterThan(s.cfg.MaxPosition.Decimal())
	suppressAsk := position.Sub(s.cfg.OrderSize.Decimal()).LessThan(s.cfg.MaxPosition.Decimal().Neg())

	levels := s.cfg.Levels
	if levels < 1 {
		levels = 1
	}

	var quotes []quotedLevel
	for i := 0; i < levels; i++ {
		levelOffset := value.PriceFromDecimal(s.cfg.TickSize.Decimal().Mul(decimal.NewFromInt(int64(i))))
		if !suppressBid {
			quotes = append(quotes, quotedLevel{Side: value.Buy, Price: mid.Sub(bidOffset).Sub(levelOffset), Size: s.cfg.OrderSize})
		}
		if !suppressAsk {
			quotes = append(quotes, quotedLevel{Side: value.Sell, Price: mid.Add(askOffset).Add(levelOffset), Size: s.cfg.OrderSize})
		}
	}

	if quotesWithinTolerance(s.lastQuotes, quotes, s.cfg.PriceTolerance) {
		return nil
	}

	if !s.cooldown.allow(s.cfg.Symbol, s.cfg.Venue, value.Buy, ts) {
		s.metrics.SignalsSuppressed++
		return nil
	}

	s.lastQuotes = quotes

	signals := []value.Signal{value.CancelAllOrdersSignal(s.cfg.Symbol, s.cfg.Venue)}
	for _, q := range quotes {
		price := q.Price
		order := value.NewOrder{
			Symbol:        s.cfg.Symbol,
			Venue:         s.cfg.Venue,
			Side:          q.Side,
			Type:          value.Limit,
			TIF:           value.GTC,
			Price:         &price,
			Size:          q.Size,
			ClientOrderID: value.NewClientOrderId(s.cfg.Venue, s.cfg.Symbol),
		}
		signals = append(signals, value.PlaceOrderSignal(order))
	}
	s.metrics.SignalsEmitted += int64(len(signals))
	return signals
}

func (s *MarketMakingStrategy) State() map[string]interface{} {
	return map[string]interface{}{
		"symbol":      s.cfg.Symbol,
		"venue":       s.cfg.Venue,
		"last_quotes": len(s.lastQuotes),
	}
}

func (s *MarketMakingStrategy) Metrics() Metrics { return s.metrics }

func (s *MarketMakingStrategy) Shutdown() []value.Signal {
	s.lastQuotes = nil
	return []value.Signal{value.CancelAllOrdersSignal(s.cfg.Symbol, s.cfg.Venue)}
}

func midPrice(bid, ask value.Price) value.Price {
	return value.PriceFromDecimal(bid.Decimal().Add(ask.Decimal()).Div(decimal.NewFromInt(2)))
}

func clampRatio(d decimal.Decimal) decimal.Decimal {
	if d.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	if d.LessThan(decimal.NewFromInt(-1)) {
		return decimal.NewFromInt(-1)
	}
	return d
}

func clampBps(d, min, max decimal.Decimal) decimal.Decimal {
	if d.LessThan(min) {
		return min
	}
	if d.GreaterThan(max) {
		return max
	}
	return d
}

// quotesWithinTolerance reports whether every level of next matches the
// corresponding level of prev within tolerance, per spec.md §4.2.1 step 7.
// A change in the number of active levels (e.g. a side newly suppressed)
// always counts as a change.
func quotesWithinTolerance(prev, next []quotedLevel, tolerance value.Price) bool {
	if len(prev) != len(next) || len(prev) == 0 {
		return false
	}
	for i := range prev {
		if prev[i].Side != next[i].Side {
			return false
		}
		diff := prev[i].Price.Sub(next[i].Price).Decimal().Abs()
		if diff.GreaterThan(tolerance.Decimal()) {
			return false
		}
	}
	return true
}
