package listener

import (
	"errors"
	"net"
	"slices"
	"sync"

	"github.com/LerianStudio/lib-http-shutdown/graceful/tracker"
)

// ErrNilListener is returned when a Listener has no underlying net.Listener.
var ErrNilListener = errors.New("listener is nil")

// Listener is a net.Listener that announces accepted connections and its own
// close to registered hooks.
//
// It satisfies shutdown.Server, so a coordinator can attach to it directly.
type Listener struct {
	net.Listener

	mu           sync.Mutex
	onConnection []func(tracker.Socket)
	onClose      []func()

	closeOnce sync.Once
	closeErr  error
}

// Wrap returns a Listener around ln.
func Wrap(ln net.Listener) *Listener {
	return &Listener{Listener: ln}
}

// Listen announces on the local network address and wraps the result.
func Listen(network, address string) (*Listener, error) {
	ln, err := net.Listen(network, address)
	if err != nil {
		return nil, err
	}

	return Wrap(ln), nil
}

// Accept waits for the next connection, wraps it in a Conn and runs the
// connection hooks before returning it.
func (l *Listener) Accept() (net.Conn, error) {
	if l == nil || l.Listener == nil {
		return nil, ErrNilListener
	}

	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}

	conn := NewConn(c)

	l.mu.Lock()
	hooks := slices.Clone(l.onConnection)
	l.mu.Unlock()

	for _, fn := range hooks {
		fn(conn)
	}

	return conn, nil
}

// Close stops accepting connections. Established connections are untouched.
// Close hooks run once, after the underlying listener is closed.
func (l *Listener) Close() error {
	if l == nil || l.Listener == nil {
		return ErrNilListener
	}

	l.closeOnce.Do(func() {
		l.closeErr = l.Listener.Close()

		l.mu.Lock()
		hooks := l.onClose
		l.onClose = nil
		l.mu.Unlock()

		for _, fn := range hooks {
			fn()
		}
	})

	return l.closeErr
}

// OnConnection registers fn to run for every accepted connection.
func (l *Listener) OnConnection(fn func(tracker.Socket)) {
	if fn == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.onConnection = append(l.onConnection, fn)
}

// OnClose registers fn to run once the listener is closed.
func (l *Listener) OnClose(fn func()) {
	if fn == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.onClose = append(l.onClose, fn)
}
