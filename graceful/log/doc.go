// Package log defines the logging interface and typed logging fields used by
// the shutdown coordinator, its trackers and the server manager.
//
// Adapters (such as the zap package) implement Logger so applications can keep
// logging calls consistent across backends.
package log
