package commit

import (
	"time"

	"github.com/okian/pooldraft/pkg/logger"
)

// Option applies a configuration option to the Committer.
type Option func(*Committer)

// WithLogger sets a custom logger for the committer.
func WithLogger(l logger.Logger) Option {
	return func(c *Committer) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTimeout bounds each store call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Committer) {
		if d >= 0 {
			c.timeout = d
		}
	}
}
