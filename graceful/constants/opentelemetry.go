package constant

// TelemetrySDKName identifies this library in OTEL telemetry resource attributes.
const TelemetrySDKName = "lib-http-shutdown/opentelemetry"

// MaxMetricLabelLength is the maximum length for metric labels to prevent cardinality explosion.
const MaxMetricLabelLength = 64

// Telemetry metric names.
const (
	// MetricOpenConnections is the gauge of sockets tracked by the connection registry.
	MetricOpenConnections = "http_shutdown_open_connections"
	// MetricPendingResponses is the gauge of in-flight responses tracked by the response tracker.
	MetricPendingResponses = "http_shutdown_pending_responses"
	// MetricForcedConnectionClosesTotal counts sockets ended by the coordinator at termination.
	MetricForcedConnectionClosesTotal = "http_shutdown_forced_connection_closes_total"
	// MetricDrainDuration is the histogram of milliseconds spent between destroy and termination.
	MetricDrainDuration = "http_shutdown_drain_duration"
	// MetricPanicRecoveredTotal is the counter metric for recovered panics.
	MetricPanicRecoveredTotal = "panic_recovered_total"
)

// Telemetry attribute keys.
const (
	// AttrServer labels coordinator metrics with the server they belong to.
	AttrServer = "server"
	// AttrTermination labels drain metrics with how termination happened.
	AttrTermination = "termination"
)

// Values for AttrTermination.
const (
	TerminationDrained = "drained"
	TerminationForced  = "forced"
)

// SanitizeMetricLabel truncates a label value to MaxMetricLabelLength
// to prevent metric cardinality explosion in OTEL backends.
func SanitizeMetricLabel(value string) string {
	if len(value) > MaxMetricLabelLength {
		return value[:MaxMetricLabelLength]
	}

	return value
}
