package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrHydration       = errors.New("session hydration failed")
	ErrInvalidRole     = errors.New("invalid role filter")
	ErrNotStarted      = errors.New("service not started")
)
