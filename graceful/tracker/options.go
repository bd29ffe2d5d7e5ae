package tracker

import (
	"context"

	"github.com/LerianStudio/lib-http-shutdown/graceful/log"
	"github.com/LerianStudio/lib-http-shutdown/graceful/opentelemetry/metrics"
)

// Option configures a ConnectionRegistry or a ResponseTracker.
type Option func(*options)

type options struct {
	logger  log.Logger
	metrics *metrics.MetricsFactory
	server  string
}

// WithLogger sets the logger used for debug events. Defaults to a no-op logger.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics publishes set sizes as gauges labelled with server.
func WithMetrics(factory *metrics.MetricsFactory, server string) Option {
	return func(o *options) {
		o.metrics = factory
		o.server = server
	}
}

func buildOptions(opts []Option) options {
	o := options{}

	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	o.logger = log.OrNop(o.logger)

	return o
}

func (o options) debug(msg string, fields ...log.Field) {
	if o.logger.Enabled(log.LevelDebug) {
		o.logger.Log(context.Background(), log.LevelDebug, msg, fields...)
	}
}

func (o options) warnOnMetricError(err error, metricName string) {
	if err != nil {
		o.logger.Log(context.Background(), log.LevelWarn, "failed to record metric",
			log.String("metric", metricName), log.Err(err))
	}
}
