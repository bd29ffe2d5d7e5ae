package tracker

import (
	"net"
	"sync"
)

// Socket is a live transport connection tracked by identity.
//
// Implementations must be comparable, typically a pointer type.
type Socket interface {
	// RemoteAddr returns the peer address. It is used for logging only.
	RemoteAddr() net.Addr
	// OnClose registers a one-shot observer for the close event. When the
	// socket is already closed fn is invoked immediately.
	OnClose(fn func())
	// SetKeepAlive toggles TCP keep-alive probes.
	SetKeepAlive(enabled bool) error
	// End requests a graceful end of stream.
	End() error
	// Unref releases anything the socket holds open, so blocked I/O on it returns.
	Unref()
}

// Response is an in-flight unit of request handling tracked by identity.
//
// Implementations must be comparable, typically a pointer type.
type Response interface {
	// OnFinish registers a one-shot observer for the finish event. When the
	// response already finished fn is invoked immediately.
	OnFinish(fn func())
}

// ResponseHandle is a Response whose finish event is raised explicitly.
// The zero value is ready to use.
type ResponseHandle struct {
	mu        sync.Mutex
	finished  bool
	observers []func()
}

// NewResponseHandle returns an unfinished ResponseHandle.
func NewResponseHandle() *ResponseHandle {
	return &ResponseHandle{}
}

// OnFinish implements Response.
func (h *ResponseHandle) OnFinish(fn func()) {
	if fn == nil {
		return
	}

	h.mu.Lock()
	if h.finished {
		h.mu.Unlock()
		fn()

		return
	}

	h.observers = append(h.observers, fn)
	h.mu.Unlock()
}

// Finish marks the response finished and notifies its observers once.
// Subsequent calls are no-ops.
func (h *ResponseHandle) Finish() {
	h.mu.Lock()
	if h.finished {
		h.mu.Unlock()
		return
	}

	h.finished = true
	observers := h.observers
	h.observers = nil
	h.mu.Unlock()

	for _, fn := range observers {
		fn()
	}
}

// Finished reports whether Finish was called.
func (h *ResponseHandle) Finished() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.finished
}
