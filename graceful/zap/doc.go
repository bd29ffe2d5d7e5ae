// Package zap adapts go.uber.org/zap to the graceful/log interface.
//
// Log events carry trace correlation fields when the context holds an active
// OpenTelemetry span, and New tees every entry into the OpenTelemetry logs
// pipeline through the otelzap bridge.
package zap
