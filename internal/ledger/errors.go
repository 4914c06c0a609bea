package ledger

import "errors"

var (
	ErrInsufficientFree    = errors.New("ledger: insufficient free balance")
	ErrReservationNotFound = errors.New("ledger: reservation not found")
	ErrNegativeBalance     = errors.New("ledger: mutation would produce a negative balance")
)
