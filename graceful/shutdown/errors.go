package shutdown

import "errors"

var (
	// ErrNilServer is returned by Attach when the server is nil.
	ErrNilServer = errors.New("server is nil")
	// ErrAlreadyAttached is returned when Attach is called more than once.
	ErrAlreadyAttached = errors.New("coordinator already attached to a server")
	// ErrShutdownTimeout is returned by Shutdown when the context expires before
	// every pending response finished.
	ErrShutdownTimeout = errors.New("shutdown timed out with pending responses")
)
