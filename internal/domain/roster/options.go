package roster

import (
	"github.com/okian/pooldraft/internal/domain/model"
	"github.com/okian/pooldraft/pkg/logger"
)

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithLogger sets a custom logger for the cache.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOnApply registers a hook run after each applied snapshot, outside
// the cache lock.
func WithOnApply(fn func(model.RosterSnapshot)) Option {
	return func(c *Cache) {
		c.onApply = fn
	}
}
