package book

import "github.com/abdoElHodaky/hftcore/internal/value"

// Level is a single price level: a price and the aggregate size resting
// there.
type Level struct {
	Price value.Price
	Size  value.Size
}

// Side distinguishes the two sides of a book.
type Side int

const (
	Bids Side = iota
	Asks
)
