package value

// SignalKind discriminates the Signal union.
type SignalKind int

const (
	SignalPlaceOrder SignalKind = iota
	SignalCancelOrder
	SignalCancelAllOrders
	SignalUpdateOrder
)

// Signal is a strategy's intent to place, amend, or cancel orders — not yet
// an order, and not yet risk-checked. The Engine emits a slice of these per
// event; the loop risk-checks and submits each one independently.
type Signal struct {
	Kind SignalKind

	// SignalPlaceOrder
	Order NewOrder

	// SignalCancelOrder
	OrderID ClientOrderId

	// SignalCancelOrder / SignalCancelAllOrders / SignalUpdateOrder
	Symbol Symbol
	Venue  VenueId

	// SignalUpdateOrder
	NewPrice *Price
	NewSize  *Size

	// ArbitragePairID links the two legs of a cross-venue arbitrage signal
	// so the strategy can track the pair until both legs resolve. Empty for
	// market-making signals.
	ArbitragePairID string
}

// PlaceOrderSignal builds a place-order signal.
func PlaceOrderSignal(o NewOrder) Signal {
	return Signal{Kind: SignalPlaceOrder, Order: o, Symbol: o.Symbol, Venue: o.Venue}
}

// CancelOrderSignal builds a cancel-one-order signal.
func CancelOrderSignal(id ClientOrderId, symbol Symbol, venue VenueId) Signal {
	return Signal{Kind: SignalCancelOrder, OrderID: id, Symbol: symbol, Venue: venue}
}

// CancelAllOrdersSignal builds a cancel-all signal for a (symbol, venue) key.
func CancelAllOrdersSignal(symbol Symbol, venue VenueId) Signal {
	return Signal{Kind: SignalCancelAllOrders, Symbol: symbol, Venue: venue}
}

// UpdateOrderSignal builds an amend-in-place signal.
func UpdateOrderSignal(id ClientOrderId, symbol Symbol, venue VenueId, price *Price, size *Size) Signal {
	return Signal{Kind: SignalUpdateOrder, OrderID: id, Symbol: symbol, Venue: venue, NewPrice: price, NewSize: size}
}
