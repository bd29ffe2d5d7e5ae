package metrics

import (
	"context"
	"time"

	constant "github.com/LerianStudio/lib-http-shutdown/graceful/constants"
)

// Pre-configured metrics emitted by the connection registry, the response
// tracker and the shutdown coordinator.
var (
	// MetricOpenConnections is a gauge of sockets currently tracked.
	MetricOpenConnections = Metric{
		Name:        constant.MetricOpenConnections,
		Unit:        "1",
		Description: "Number of accepted connections currently tracked for shutdown.",
	}

	// MetricPendingResponses is a gauge of responses currently in flight.
	MetricPendingResponses = Metric{
		Name:        constant.MetricPendingResponses,
		Unit:        "1",
		Description: "Number of in-flight responses that block shutdown completion.",
	}

	// MetricForcedConnectionCloses counts sockets ended at termination.
	MetricForcedConnectionCloses = Metric{
		Name:        constant.MetricForcedConnectionClosesTotal,
		Unit:        "1",
		Description: "Total number of connections forcibly ended when shutdown completed.",
	}

	// MetricDrainDuration measures the time between destroy and termination.
	MetricDrainDuration = Metric{
		Name:        constant.MetricDrainDuration,
		Unit:        "ms",
		Description: "Time spent waiting for in-flight responses before terminating.",
		Buckets:     DefaultDrainBuckets,
	}
)

func serverLabels(server string) map[string]string {
	return map[string]string{constant.AttrServer: constant.SanitizeMetricLabel(server)}
}

// RecordOpenConnections sets the open connections gauge for server.
func (f *MetricsFactory) RecordOpenConnections(ctx context.Context, server string, count int) error {
	b, err := f.Gauge(MetricOpenConnections)
	if err != nil {
		return err
	}

	return b.WithLabels(serverLabels(server)).Set(ctx, int64(count))
}

// RecordPendingResponses sets the pending responses gauge for server.
func (f *MetricsFactory) RecordPendingResponses(ctx context.Context, server string, count int) error {
	b, err := f.Gauge(MetricPendingResponses)
	if err != nil {
		return err
	}

	return b.WithLabels(serverLabels(server)).Set(ctx, int64(count))
}

// RecordForcedConnectionCloses adds count to the forced closes counter for server.
func (f *MetricsFactory) RecordForcedConnectionCloses(ctx context.Context, server string, count int) error {
	b, err := f.Counter(MetricForcedConnectionCloses)
	if err != nil {
		return err
	}

	return b.WithLabels(serverLabels(server)).Add(ctx, int64(count))
}

// RecordDrainDuration records how long server took to terminate and whether it was forced.
func (f *MetricsFactory) RecordDrainDuration(ctx context.Context, server string, elapsed time.Duration, forced bool) error {
	b, err := f.Histogram(MetricDrainDuration)
	if err != nil {
		return err
	}

	termination := constant.TerminationDrained
	if forced {
		termination = constant.TerminationForced
	}

	labels := serverLabels(server)
	labels[constant.AttrTermination] = termination

	return b.WithLabels(labels).Record(ctx, elapsed.Milliseconds())
}
