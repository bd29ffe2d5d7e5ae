package runtime

import "sync/atomic"

// PanicPolicy determines what happens after a panic has been recovered and recorded.
type PanicPolicy int

const (
	// KeepRunning logs and records the panic, then lets the process continue.
	KeepRunning PanicPolicy = iota
	// CrashProcess logs and records the panic, then re-panics.
	CrashProcess
)

// String returns the policy name.
func (p PanicPolicy) String() string {
	switch p {
	case KeepRunning:
		return "KeepRunning"
	case CrashProcess:
		return "CrashProcess"
	default:
		return "Unknown"
	}
}

var productionMode atomic.Bool

// SetProductionMode controls redaction. In production mode stack traces are
// kept out of panic logs and span events, and log.SafeError callers drop
// error details.
func SetProductionMode(enabled bool) {
	productionMode.Store(enabled)
}

// IsProductionMode reports whether SetProductionMode(true) is in effect.
func IsProductionMode() bool {
	return productionMode.Load()
}
