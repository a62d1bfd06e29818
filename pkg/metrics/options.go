// Package metrics provides Prometheus metrics for the pooldraft curation service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Option configures a Manager before its collectors are registered.
type Option func(*Manager)

// WithNamespace overrides the "pooldraft" metric prefix.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem overrides the "curation" subsystem.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithBuckets sets the millisecond buckets used by every latency histogram.
func WithBuckets(buckets ...float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// Disabled turns the Record/Update helpers into no-ops.
func Disabled() Option {
	return func(m *Manager) { m.enabled = false }
}

// WithConstLabel attaches a constant label, such as the instance name, to
// every collector.
func WithConstLabel(name, value string) Option {
	return func(m *Manager) {
		if name == "" {
			return
		}
		if m.constLabels == nil {
			m.constLabels = prometheus.Labels{}
		}
		m.constLabels[name] = value
	}
}

// WithRegistry registers collectors on r instead of the default registerer.
func WithRegistry(r prometheus.Registerer) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}
