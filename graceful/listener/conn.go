package listener

import (
	"net"
	"sync"
	"time"
)

// Conn is a net.Conn that reports its own close event.
//
// It implements tracker.Socket.
type Conn struct {
	net.Conn

	mu        sync.Mutex
	closed    bool
	observers []func()
}

// NewConn wraps c. Listener does this for every accepted connection.
func NewConn(c net.Conn) *Conn {
	return &Conn{Conn: c}
}

// Close closes the underlying connection and notifies close observers once.
func (c *Conn) Close() error {
	err := c.Conn.Close()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return err
	}

	c.closed = true
	observers := c.observers
	c.observers = nil
	c.mu.Unlock()

	for _, fn := range observers {
		fn()
	}

	return err
}

// OnClose registers fn to run after Close. It runs immediately when the
// connection is already closed.
func (c *Conn) OnClose(fn func()) {
	if fn == nil {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		fn()

		return
	}

	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

// SetKeepAlive toggles TCP keep-alive probes. Non-TCP connections ignore it.
func (c *Conn) SetKeepAlive(enabled bool) error {
	if tc, ok := c.Conn.(*net.TCPConn); ok {
		return tc.SetKeepAlive(enabled)
	}

	return nil
}

// End shuts down the writing side when the transport supports half-close and
// closes the connection otherwise.
func (c *Conn) End() error {
	if hc, ok := c.Conn.(interface{ CloseWrite() error }); ok {
		return hc.CloseWrite()
	}

	return c.Close()
}

// Unref expires every deadline so reads and writes blocked on the connection
// return and the goroutine serving it can exit.
func (c *Conn) Unref() {
	_ = c.Conn.SetDeadline(time.Now())
}

// NetConn returns the wrapped connection.
func (c *Conn) NetConn() net.Conn {
	return c.Conn
}
