package value

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// OrderType enumerates the supported order types.
type OrderType string

const (
	Market    OrderType = "MARKET"
	Limit     OrderType = "LIMIT"
	StopLoss  OrderType = "STOP_LOSS"
	StopLimit OrderType = "STOP_LIMIT"
)

// TimeInForce controls how long an order remains active.
type TimeInForce string

const (
	GTC TimeInForce = "GTC"
	IOC TimeInForce = "IOC"
	FOK TimeInForce = "FOK"
)

// OrderStatus is the order's position in its state machine.
type OrderStatus string

const (
	StatusNew             OrderStatus = "NEW"
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	StatusFilled          OrderStatus = "FILLED"
	StatusCancelled       OrderStatus = "CANCELLED"
	StatusRejected        OrderStatus = "REJECTED"
	StatusExpired         OrderStatus = "EXPIRED"
)

// IsTerminal reports whether no further transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusFilled, StatusCancelled, StatusRejected, StatusExpired:
		return true
	default:
		return false
	}
}

// allowedTransitions encodes the state machine from spec.md §3:
// New → {PartiallyFilled, Filled, Cancelled, Rejected, Expired}
// PartiallyFilled → {PartiallyFilled, Filled, Cancelled, Expired}
var allowedTransitions = map[OrderStatus]map[OrderStatus]bool{
	StatusNew: {
		StatusPartiallyFilled: true,
		StatusFilled:          true,
		StatusCancelled:       true,
		StatusRejected:        true,
		StatusExpired:         true,
	},
	StatusPartiallyFilled: {
		StatusPartiallyFilled: true,
		StatusFilled:          true,
		StatusCancelled:       true,
		StatusExpired:         true,
	},
}

// CanTransition reports whether moving from s to next is legal.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	return allowedTransitions[s][next]
}

// NewOrder is a strategy's intent to place an order, before it has a venue
// order id.
type NewOrder struct {
	Symbol        Symbol
	Venue         VenueId
	Side          Side
	Type          OrderType
	TIF           TimeInForce
	Price         *Price // required for Limit, StopLimit
	Size          Size
	ClientOrderID ClientOrderId
}

// Validate enforces the construction-time invariants from spec.md §3.
func (o NewOrder) Validate() error {
	if !o.Size.GreaterThanZero() {
		return ErrNegativeValue
	}
	if (o.Type == Limit || o.Type == StopLimit) && o.Price == nil {
		return ErrMissingPrice
	}
	return nil
}

// Order is a live order: NewOrder plus the fields assigned once it is
// accepted into the order manager.
type Order struct {
	NewOrder
	OrderID     OrderId
	FilledSize  Size
	Status      OrderStatus
	CreatedTS   Timestamp
}

// RemainingSize returns the size still open to be filled.
func (o Order) RemainingSize() Size {
	return SizeFromDecimal(o.Size.Decimal().Sub(o.FilledSize.Decimal()))
}
