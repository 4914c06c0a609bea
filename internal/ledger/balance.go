package ledger

import "github.com/abdoElHodaky/hftcore/internal/value"

// Balance is the total/free/used accounting for a single asset. The
// invariant Total == Free + Used is enforced by every mutating method on
// Ledger; Balance itself is a plain value object.
type Balance struct {
	Total value.Size
	Free  value.Size
	Used  value.Size
}

func zeroBalance() Balance {
	return Balance{Total: value.ZeroSize, Free: value.ZeroSize, Used: value.ZeroSize}
}

// reserve moves amount from Free to Used. Fails if Free is insufficient.
func (b Balance) reserve(amount value.Size) (Balance, error) {
	if b.Free.LessThan(amount) {
		return b, ErrInsufficientFree
	}
	b.Free = b.Free.Sub(amount)
	b.Used = b.Used.Add(amount)
	return b, nil
}

// release moves amount from Used back to Free.
func (b Balance) release(amount value.Size) (Balance, error) {
	if b.Used.LessThan(amount) {
		return b, ErrNegativeBalance
	}
	b.Used = b.Used.Sub(amount)
	b.Free = b.Free.Add(amount)
	return b, nil
}

// settleFromUsed consumes amount from both Used and Total, used when a
// reservation converts into a realized debit (e.g. the quote leg of a buy
// fill).
func (b Balance) settleFromUsed(amount value.Size) (Balance, error) {
	if b.Used.LessThan(amount) {
		return b, ErrNegativeBalance
	}
	b.Used = b.Used.Sub(amount)
	b.Total = b.Total.Sub(amount)
	return b, nil
}

// debitFree consumes amount directly from Free and Total, used when there
// was no reservation to draw from.
func (b Balance) debitFree(amount value.Size) (Balance, error) {
	if b.Free.LessThan(amount) {
		return b, ErrInsufficientFree
	}
	b.Free = b.Free.Sub(amount)
	b.Total = b.Total.Sub(amount)
	return b, nil
}

// credit adds amount to both Free and Total, used for the asset side that
// receives funds on a fill.
func (b Balance) credit(amount value.Size) Balance {
	b.Free = b.Free.Add(amount)
	b.Total = b.Total.Add(amount)
	return b
}
