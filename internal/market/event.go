package market

import (
	"github.com/abdoElHodaky/hftcore/internal/book"
	"github.com/abdoElHodaky/hftcore/internal/value"
)

// EventKind discriminates the MarketEvent union.
type EventKind int

const (
	EventBookSnapshot EventKind = iota
	EventBookDelta
	EventTrade
)

// MarketEvent is a single normalized market data update, handed to the
// strategy engine after the state aggregate has applied it.
type MarketEvent struct {
	Kind   EventKind
	Venue  value.VenueId
	Symbol value.Symbol
	TS     value.Timestamp

	// EventBookSnapshot / EventBookDelta
	Bids []book.Level
	Asks []book.Level

	// EventTrade
	Trade Trade

	// Crossed is set on EventBookDelta when the delta left the book
	// transiently crossed.
	Crossed bool
}

// Trade is the last observed print for a (venue, symbol).
type Trade struct {
	Price value.Price
	Size  value.Size
	Side  value.Side
	TS    value.Timestamp
}
