package value

import "errors"

var (
	ErrNegativeValue   = errors.New("value: negative value not allowed")
	ErrInvalidSymbol   = errors.New("value: symbol must be 1-20 alphanumeric characters")
	ErrEmptyIdentifier = errors.New("value: identifier must not be empty")
	ErrMissingPrice    = errors.New("value: limit and stop-limit orders require a price")
)
