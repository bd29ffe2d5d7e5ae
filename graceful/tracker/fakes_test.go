//go:build unit

package tracker

import (
	"errors"
	"net"
	"sync"
)

var errEndFailed = errors.New("end failed")

type fakeSocket struct {
	mu         sync.Mutex
	addr       net.Addr
	closed     bool
	observers  []func()
	keepAlive  []bool
	endCalls   int
	unrefCalls int
	endErr     error
}

func newFakeSocket(port int) *fakeSocket {
	return &fakeSocket{addr: &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}}
}

func (s *fakeSocket) RemoteAddr() net.Addr { return s.addr }

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

	return s.endErr
}

func (s *fakeSocket) Unref() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unrefCalls++
}

// close simulates the peer hanging up.
func (s *fakeSocket) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

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
