package config

import "errors"

var (
	// ErrLoadConfig wraps failures reading the config file or environment.
	ErrLoadConfig = errors.New("config: load")
	// ErrInvalidConfig wraps validation failures of a loaded Config.
	ErrInvalidConfig = errors.New("config: invalid")
)
