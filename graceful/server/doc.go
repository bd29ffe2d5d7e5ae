// Package server runs HTTP, Fiber and gRPC servers and drains them on shutdown.
//
// Every HTTP and Fiber server is served from a listener owned by its own
// shutdown.Coordinator, so a shutdown lets in-flight requests finish and then
// ends idle keep-alive connections instead of waiting for clients to leave.
package server
