package commit

import "errors"

var (
	// ErrCommitInFlight is returned while a previous commit for the same
	// event is outstanding.
	ErrCommitInFlight = errors.New("commit already in flight")
	// ErrTransient wraps store failures. The caller's state is untouched and
	// the commit may be retried.
	ErrTransient = errors.New("transient store failure")
)
