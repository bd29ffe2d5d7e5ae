package http

import (
	"net"
	nethttp "net/http"

	"github.com/LerianStudio/lib-http-shutdown/graceful/shutdown"
	"github.com/valyala/fasthttp"
)

// WrapFastHTTPServer makes srv report its requests and connection states to
// coord. Call it after srv.Handler is set and before serving.
func WrapFastHTTPServer(coord *shutdown.Coordinator, srv *fasthttp.Server) {
	if coord == nil || srv == nil {
		return
	}

	srv.Handler = TrackHandler(coord, srv.Handler)

	ConfigureFastHTTPServer(coord, srv)
}

// TrackHandler wraps next so every request is tracked by coord.
func TrackHandler(coord *shutdown.Coordinator, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		coord.TrackRequest(ctx.Conn(), func() {
			if next != nil {
				next(ctx)
			}
		})
	}
}

// ConfigureFastHTTPServer chains the coordinator ConnState hook in front of
// any hook already set on srv.
//
// It also enables ReduceMemoryUsage. Without it fasthttp reports StateIdle
// before flushing a response when a pipelined request is already buffered,
// and the coordinator would end the connection with that response unsent.
func ConfigureFastHTTPServer(coord *shutdown.Coordinator, srv *fasthttp.Server) {
	if coord == nil || srv == nil {
		return
	}

	srv.ReduceMemoryUsage = true

	prev := srv.ConnState
	srv.ConnState = func(conn net.Conn, state fasthttp.ConnState) {
		if mapped, ok := toNetHTTPState(state); ok {
			coord.ConnState(conn, mapped)
		}

		if prev != nil {
			prev(conn, state)
		}
	}
}

func toNetHTTPState(state fasthttp.ConnState) (nethttp.ConnState, bool) {
	switch state {
	case fasthttp.StateNew:
		return nethttp.StateNew, true
	case fasthttp.StateActive:
		return nethttp.StateActive, true
	case fasthttp.StateIdle:
		return nethttp.StateIdle, true
	case fasthttp.StateHijacked:
		return nethttp.StateHijacked, true
	case fasthttp.StateClosed:
		return nethttp.StateClosed, true
	default:
		return 0, false
	}
}
