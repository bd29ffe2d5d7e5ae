// Package graceful holds the shared helpers of lib-http-shutdown.
//
// The shutdown machinery itself lives in the subpackages:
//
//   - tracker: connection registry and response tracker
//   - shutdown: the coordinator state machine and its net/http wiring
//   - listener: a net.Listener that reports accepted connections
//   - net/http: Fiber and fasthttp adapters
//   - server: a manager that runs several servers and drains them on signal
//
// This package only provides environment based configuration helpers.
package graceful
