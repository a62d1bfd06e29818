package roster

import "errors"

var (
	// ErrAlreadyStarted is returned by Start on a subscribed cache.
	ErrAlreadyStarted = errors.New("roster cache already started")
	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("roster cache closed")
)
