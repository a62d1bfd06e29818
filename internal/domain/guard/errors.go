package guard

import "errors"

var (
	// ErrInFlight is returned when the key is already held.
	ErrInFlight = errors.New("operation already in flight")
	// ErrCapacity is returned when a bounded guard is full.
	ErrCapacity = errors.New("guard capacity exceeded")
)
