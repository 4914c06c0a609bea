package ledger

import "github.com/abdoElHodaky/hftcore/internal/value"

// Reservation is a hold against an asset's free balance on a venue, created
// atomically with risk approval and released on cancel/reject or converted
// to a realized movement on fill.
type Reservation struct {
	ID     value.ReservationId
	Venue  value.VenueId
	Asset  string
	Amount value.Size
}
