package oms

import "github.com/abdoElHodaky/hftcore/internal/value"

// LiveOrder is the order manager's record of an order in flight, keyed by
// ClientOrderId.
type LiveOrder struct {
	value.NewOrder

	ClientOrderID value.ClientOrderId
	OrderID       value.OrderId // venue-assigned, set on OnAck
	Status        value.OrderStatus
	FilledSize    value.Size
	AveragePrice  *value.Price
	Reservation   value.ReservationId
	CreatedTS     value.Timestamp
	UpdatedTS     value.Timestamp
}

// RemainingSize is the portion of the order not yet filled.
func (o *LiveOrder) RemainingSize() value.Size {
	return value.SizeFromDecimal(o.Size.Decimal().Sub(o.FilledSize.Decimal()))
}
