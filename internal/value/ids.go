package value

import "github.com/google/uuid"

// VenueId identifies a trading venue (CEX or DEX), e.g. "BINANCE", "DYDX".
type VenueId string

func NewVenueId(s string) (VenueId, error) {
	if s == "" {
		return "", ErrEmptyIdentifier
	}
	return VenueId(s), nil
}

func (v VenueId) String() string { return string(v) }

// OrderId is venue-assigned; the core never generates one, only stores it
// after an adapter ack.
type OrderId string

func (o OrderId) String() string { return string(o) }

// ClientOrderId is locally generated and used to correlate submission with
// the eventual venue ack and execution reports.
type ClientOrderId string

// NewClientOrderId generates a fresh id tagged with venue and symbol for
// operator-readable log lines.
func NewClientOrderId(venue VenueId, symbol Symbol) ClientOrderId {
	return ClientOrderId(string(venue) + ":" + string(symbol) + ":" + uuid.New().String())
}

func (c ClientOrderId) String() string { return string(c) }

// ReservationId identifies a ledger-side hold on free funds.
type ReservationId string

func NewReservationId() ReservationId {
	return ReservationId(uuid.New().String())
}

func (r ReservationId) String() string { return string(r) }
