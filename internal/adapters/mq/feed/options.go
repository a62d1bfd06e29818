package feed

import (
	"github.com/okian/pooldraft/pkg/logger"
)

// Option applies a configuration option to the Hub.
type Option func(*Hub)

// WithName sets the hub name for identification and logging.
func WithName(name string) Option {
	return func(h *Hub) {
		if name != "" {
			h.name = name
		}
	}
}

// WithLogger sets a custom logger for the hub.
func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}
