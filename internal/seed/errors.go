package seed

import "errors"

// Sentinel kinds for this package.
var (
	ErrBadRoster = errors.New("bad roster file")
	ErrPartial   = errors.New("some candidates were not seeded")
)
