// Package ledger is the shadow ledger: positions, balances, frozen
// reservations, and realized P&L, generalizing the teacher's
// internal/risk/position_manager.go PositionManager (per-user per-symbol
// float64 quantity/avg-price map under a sync.RWMutex) into a per-venue
// balance ledger plus per-symbol netted position and an explicit
// reservation table, since this repo tracks one account across venues
// rather than many users.
package ledger

import (
	"sync"
	"time"

	"github.com/abdoElHodaky/hftcore/internal/value"
	"github.com/shopspring/decimal"
)

type balanceKey struct {
	Venue value.VenueId
	Asset string
}

// Ledger is the single in-process shadow ledger. It is mutated only by the
// event loop (reserve/release/apply-fill happen inside the risk gate's
// atomic approval step and the execution-report handler respectively);
// reads return value copies so callers never observe a partially-applied
// mutation.
type Ledger struct {
	mu sync.RWMutex

	balances     map[balanceKey]Balance
	positions    map[value.Symbol]Position
	reservations map[value.ReservationId]Reservation

	dailyRealized map[string]decimal.Decimal
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		balances:      make(map[balanceKey]Balance),
		positions:     make(map[value.Symbol]Position),
		reservations:  make(map[value.ReservationId]Reservation),
		dailyRealized: make(map[string]decimal.Decimal),
	}
}

// SeedBalance initializes or overwrites the balance for (venue, asset),
// used at startup to reconcile against the venue's own account query.
func (l *Ledger) SeedBalance(venue value.VenueId, asset string, total value.Size) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[balanceKey{Venue: venue, Asset: asset}] = Balance{Total: total, Free: total, Used: value.ZeroSize}
}

// Balance returns a value copy of the balance for (venue, asset).
func (l *Ledger) Balance(venue value.VenueId, asset string) Balance {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, ok := l.balances[balanceKey{Venue: venue, Asset: asset}]
	if !ok {
		return zeroBalance()
	}
	return b
}

// Position returns a value copy of the netted position for symbol.
func (l *Ledger) Position(symbol value.Symbol) Position {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.positions[symbol]
	if !ok {
		return zeroPosition(symbol)
	}
	return p
}

// Reserve moves amount from free to used for (venue, asset) and returns a
// reservation handle, atomically with the caller's risk approval (the risk
// gate calls this while still holding its own evaluation in progress, so
// there is no window where an order is approved but unreserved).
func (l *Ledger) Reserve(venue value.VenueId, asset string, amount value.Size) (value.ReservationId, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := balanceKey{Venue: venue, Asset: asset}
	bal, ok := l.balances[key]
	if !ok {
		bal = zeroBalance()
	}
	updated, err := bal.reserve(amount)
	if err != nil {
		return "", err
	}
	l.balances[key] = updated

	id := value.NewReservationId()
	l.reservations[id] = Reservation{ID: id, Venue: venue, Asset: asset, Amount: amount}
	return id, nil
}

// Release restores a reservation's amount from used back to free, used on
// cancel, reject, or expiry of the order it backed.
func (l *Ledger) Release(id value.ReservationId) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	res, ok := l.reservations[id]
	if !ok {
		return ErrReservationNotFound
	}
	key := balanceKey{Venue: res.Venue, Asset: res.Asset}
	bal := l.balances[key]
	updated, err := bal.release(res.Amount)
	if err != nil {
		return err
	}
	l.balances[key] = updated
	delete(l.reservations, id)
	return nil
}

// ReservationAmount returns the amount held by a live reservation, used by
// the OMS to compute partial-release on partial fills.
func (l *Ledger) ReservationAmount(id value.ReservationId) (value.Size, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	res, ok := l.reservations[id]
	if !ok {
		return value.ZeroSize, false
	}
	return res.Amount, true
}

// ApplyFill applies a single incremental fill (not the order's cumulative
// filled size — the OMS is responsible for computing the delta before
// calling this) to balances and the netted position, per spec.md §4.3:
// a buy fill debits the quote asset and credits the base asset; a sell
// fill is the mirror. When reservationID names a reservation that still
// holds an amount, the debit is settled from used up to that amount, any
// excess is debited from free, and the reservation is reduced by what was
// consumed (and deleted once it reaches zero). When reservationID is nil,
// unknown or already exhausted, the whole debit is taken from free.
func (l *Ledger) ApplyFill(venue value.VenueId, symbol value.Symbol, side value.Side, reservationID *value.ReservationId, deltaSize value.Size, fillPrice value.Price) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	quote := symbol.QuoteAsset()
	base := symbol.BaseAsset()
	notional := value.SizeFromDecimal(deltaSize.Decimal().Mul(fillPrice.Decimal()))

	var debitAsset string
	var debitAmount value.Size
	var creditAsset string
	var creditAmount value.Size
	var signedDelta decimal.Decimal

	if side == value.Buy {
		debitAsset, debitAmount = quote, notional
		creditAsset, creditAmount = base, deltaSize
		signedDelta = deltaSize.Decimal()
	} else {
		debitAsset, debitAmount = base, deltaSize
		creditAsset, creditAmount = quote, notional
		signedDelta = deltaSize.Decimal().Neg()
	}

	debitKey := balanceKey{Venue: venue, Asset: debitAsset}
	debitBal := l.balances[debitKey]

	var updated Balance
	var err error
	if reservationID != nil {
		if res, ok := l.reservations[*reservationID]; ok && res.Amount.GreaterThan(value.ZeroSize) {
			consume := debitAmount
			if consume.GreaterThan(res.Amount) {
				consume = res.Amount
			}
			updated, err = debitBal.settleFromUsed(consume)
			if err == nil && debitAmount.GreaterThan(consume) {
				remainder := value.SizeFromDecimal(debitAmount.Decimal().Sub(consume.Decimal()))
				updated, err = updated.debitFree(remainder)
			}
			if err == nil {
				remaining := res.Amount.Sub(consume)
				if remaining.IsZero() {
					delete(l.reservations, *reservationID)
				} else {
					res.Amount = remaining
					l.reservations[*reservationID] = res
				}
			}
		} else {
			updated, err = debitBal.debitFree(debitAmount)
		}
	} else {
		updated, err = debitBal.debitFree(debitAmount)
	}
	if err != nil {
		return err
	}
	l.balances[debitKey] = updated

	creditKey := balanceKey{Venue: venue, Asset: creditAsset}
	l.balances[creditKey] = l.balances[creditKey].credit(creditAmount)

	pos, ok := l.positions[symbol]
	if !ok {
		pos = zeroPosition(symbol)
	}
	prevRealized := pos.RealizedPnL
	pos = pos.applyFill(signedDelta, fillPrice)
	l.positions[symbol] = pos

	realizedDelta := pos.RealizedPnL.Sub(prevRealized)
	if !realizedDelta.IsZero() {
		day := utcDay(time.Now())
		l.dailyRealized[day] = l.dailyRealized[day].Add(realizedDelta)
	}
	return nil
}

// MarkToMarket updates the unrealized P&L of symbol's position given the
// current mid/last price, without mutating balances or realized P&L.
func (l *Ledger) MarkToMarket(symbol value.Symbol, price value.Price) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, ok := l.positions[symbol]
	if !ok {
		return
	}
	l.positions[symbol] = pos.markToMarket(price)
}

// RealizedPnLToday returns the cumulative realized P&L for the current UTC
// day, used by the DailyLoss risk rule.
func (l *Ledger) RealizedPnLToday() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dailyRealized[utcDay(time.Now())]
}

func utcDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
