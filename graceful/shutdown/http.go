package shutdown

import (
	"context"
	"net"
	"net/http"

	"github.com/LerianStudio/lib-http-shutdown/graceful/tracker"
)

type connContextKey struct{}

// Middleware returns net/http middleware that tracks every request until its
// response is finished. next is called exactly once, synchronously.
//
// On a server prepared with ConfigureServer the response finishes when the
// connection goes idle, closes or is hijacked, that is once the response was
// flushed to the wire. Otherwise it finishes when next returns.
func (c *Coordinator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, _ := r.Context().Value(connContextKey{}).(net.Conn)

			c.TrackRequest(conn, func() { next.ServeHTTP(w, r) })
		})
	}
}

// TrackRequest tracks one request served on conn and calls next exactly once,
// synchronously. conn may be nil.
//
// When the ConnState hook already opened a response for conn, that response
// is reused and finishes with the connection state. Otherwise the response
// finishes when next returns.
func (c *Coordinator) TrackRequest(conn net.Conn, next func()) {
	socket, _ := socketFromConn(conn)

	if res := c.activeResponse(conn); res != nil {
		c.responses.Track(res, socket, next)
		return
	}

	res := tracker.NewResponseHandle()

	c.responses.Track(res, socket, func() {
		defer res.Finish()

		if next != nil {
			next()
		}
	})
}

// ConfigureServer installs the coordinator hooks on srv, chaining any
// ConnContext and ConnState hooks already set. Call it before serving.
func (c *Coordinator) ConfigureServer(srv *http.Server) {
	if srv == nil {
		return
	}

	prevContext := srv.ConnContext
	srv.ConnContext = func(ctx context.Context, conn net.Conn) context.Context {
		if prevContext != nil {
			ctx = prevContext(ctx, conn)
		}

		return c.ConnContext(ctx, conn)
	}

	srv.ConnState = connStateHook(c.ConnState, srv.ConnState)
}

// ConnContext stores conn in ctx so Middleware can find its socket.
func (c *Coordinator) ConnContext(ctx context.Context, conn net.Conn) context.Context {
	return context.WithValue(ctx, connContextKey{}, conn)
}

// ConnState is an http.Server ConnState hook.
//
// A connection becoming active starts a pending response, and the response
// finishes when the connection goes idle, closes or is hijacked.
func (c *Coordinator) ConnState(conn net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		if socket, ok := socketFromConn(conn); ok {
			c.connections.TrackConnection(socket)
		}
	case http.StateActive:
		res := tracker.NewResponseHandle()

		c.activeMu.Lock()
		prev := c.active[conn]
		c.active[conn] = res
		c.activeMu.Unlock()

		socket, _ := socketFromConn(conn)
		c.responses.Track(res, socket, nil)

		// prev finishes after res is tracked so pending never dips to zero
		// between two responses on one connection.
		if prev != nil {
			prev.Finish()
		}
	case http.StateIdle, http.StateClosed, http.StateHijacked:
		c.activeMu.Lock()
		res := c.active[conn]
		delete(c.active, conn)
		c.activeMu.Unlock()

		if res != nil {
			res.Finish()
		}
	}
}

// SocketFromContext returns the socket serving the request with ctx, when the
// server was prepared with ConfigureServer and serves a listener.Listener.
func SocketFromContext(ctx context.Context) (tracker.Socket, bool) {
	if ctx == nil {
		return nil, false
	}

	conn, _ := ctx.Value(connContextKey{}).(net.Conn)

	return socketFromConn(conn)
}

func (c *Coordinator) activeResponse(conn net.Conn) *tracker.ResponseHandle {
	if conn == nil {
		return nil
	}

	c.activeMu.Lock()
	defer c.activeMu.Unlock()

	return c.active[conn]
}

// socketFromConn unwraps conn until it finds a tracker.Socket. TLS
// connections expose the transport through NetConn.
func socketFromConn(conn net.Conn) (tracker.Socket, bool) {
	for conn != nil {
		if socket, ok := conn.(tracker.Socket); ok {
			return socket, true
		}

		unwrapper, ok := conn.(interface{ NetConn() net.Conn })
		if !ok {
			return nil, false
		}

		conn = unwrapper.NetConn()
	}

	return nil, false
}

// connStateHook combines two http.Server ConnState hooks.
func connStateHook(a, b func(net.Conn, http.ConnState)) func(net.Conn, http.ConnState) {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return b
	case b == nil:
		return a
	}

	return func(conn net.Conn, state http.ConnState) {
		a(conn, state)
		b(conn, state)
	}
}
