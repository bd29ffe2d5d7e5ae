package shutdown

import (
	"github.com/LerianStudio/lib-http-shutdown/graceful/log"
	"github.com/LerianStudio/lib-http-shutdown/graceful/opentelemetry/metrics"
)

// DefaultName labels logs and metrics of coordinators created without WithName.
const DefaultName = "http"

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator logger. Defaults to a no-op logger.
func WithLogger(logger log.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithMetrics enables connection, response and drain metrics.
func WithMetrics(factory *metrics.MetricsFactory) Option {
	return func(c *Coordinator) {
		c.metrics = factory
	}
}

// WithName sets the server name used in logs and as the metrics label.
func WithName(name string) Option {
	return func(c *Coordinator) {
		if name != "" {
			c.name = name
		}
	}
}
