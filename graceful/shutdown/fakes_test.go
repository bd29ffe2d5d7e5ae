//go:build unit

package shutdown

import (
	"errors"
	"net"
	"slices"
	"sync"

	"github.com/LerianStudio/lib-http-shutdown/graceful/tracker"
)

var errCloseFailed = errors.New("close failed")

type fakeServer struct {
	mu           sync.Mutex
	onConnection []func(tracker.Socket)
	onClose      []func()
	closeCalls   int
	closeErr     error
}

func (s *fakeServer) OnConnection(fn func(tracker.Socket)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onConnection = append(s.onConnection, fn)
}

func (s *fakeServer) OnClose(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onClose = append(s.onClose, fn)
}

func (s *fakeServer) Close() error {
	s.mu.Lock()
	s.closeCalls++
	hooks := s.onClose
	s.onClose = nil
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}

	return s.closeErr
}

// accept simulates a new incoming connection.
func (s *fakeServer) accept(socket tracker.Socket) {
	s.mu.Lock()
	hooks := slices.Clone(s.onConnection)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(socket)
	}
}

type fakeSocket struct {
	mu         sync.Mutex
	closed     bool
	observers  []func()
	keepAlive  []bool
	endCalls   int
	unrefCalls int
}

func (s *fakeSocket) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 4242}
}

func (s *fakeSocket) OnClose(fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fn()

		return
	}

	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *fakeSocket) SetKeepAlive(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keepAlive = append(s.keepAlive, enabled)

	return nil
}

func (s *fakeSocket) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.endCalls++

	return nil
}

func (s *fakeSocket) Unref() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unrefCalls++
}

func (s *fakeSocket) close() {
	s.mu.Lock()
	s.closed = true
	observers := s.observers
	s.observers = nil
	s.mu.Unlock()

	for _, fn := range observers {
		fn()
	}
}

func (s *fakeSocket) ends() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.endCalls
}

// fakeConn is a net.Conn that is also a tracker.Socket, like listener.Conn.
type fakeConn struct {
	net.Conn
	*fakeSocket
}

func (c *fakeConn) RemoteAddr() net.Addr {
	return c.fakeSocket.RemoteAddr()
}

func newFakeConn() *fakeConn {
	return &fakeConn{fakeSocket: &fakeSocket{}}
}
