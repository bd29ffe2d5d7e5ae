// Package metrics provides a fluent factory for OpenTelemetry metric instruments.
//
// MetricsFactory caches instruments and exposes builder-style APIs for counters,
// gauges, and histograms. Convenience recorders (RecordOpenConnections,
// RecordDrainDuration, ...) cover the metrics emitted by the shutdown
// coordinator and its trackers.
package metrics
