package oms

import "errors"

var (
	ErrNotFound          = errors.New("oms: order not found")
	ErrInvalidTransition = errors.New("oms: invalid order status transition")
	ErrAlreadyTerminal   = errors.New("oms: order already in a terminal state")
)
