package value

// ExecutionReport is a venue-sourced update to a previously submitted order.
type ExecutionReport struct {
	OrderID       OrderId
	ClientOrderID ClientOrderId
	Symbol        Symbol
	Venue         VenueId
	Status        OrderStatus
	FilledSize    Size
	RemainingSize Size
	AveragePrice  *Price
	TS            Timestamp
}
