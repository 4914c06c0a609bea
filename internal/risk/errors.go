package risk

import "errors"

var (
	// ErrKillSwitchActive is returned (wrapped in a Violation) when the kill
	// switch rule rejects an order.
	ErrKillSwitchActive = errors.New("risk: kill switch active")
	// ErrUnknownAsset is returned when a rule cannot resolve the asset a
	// balance check should apply to.
	ErrUnknownAsset = errors.New("risk: unknown asset for balance check")
)
