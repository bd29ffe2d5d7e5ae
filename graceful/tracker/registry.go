package tracker

import (
	"context"
	"sync"

	constant "github.com/LerianStudio/lib-http-shutdown/graceful/constants"
	"github.com/LerianStudio/lib-http-shutdown/graceful/log"
)

// ConnectionRegistry tracks every socket accepted by a server until it closes.
type ConnectionRegistry struct {
	mu    sync.Mutex
	conns map[Socket]struct{}
	opts  options
}

// NewConnectionRegistry returns an empty registry.
func NewConnectionRegistry(opts ...Option) *ConnectionRegistry {
	return &ConnectionRegistry{
		conns: make(map[Socket]struct{}),
		opts:  buildOptions(opts),
	}
}

// TrackConnection adds s to the registry and removes it again when s closes.
// It returns false, doing nothing, when s is nil or already tracked.
func (r *ConnectionRegistry) TrackConnection(s Socket) bool {
	if s == nil {
		return false
	}

	r.mu.Lock()
	if _, ok := r.conns[s]; ok {
		r.mu.Unlock()
		return false
	}

	r.conns[s] = struct{}{}
	r.publish(len(r.conns))
	r.mu.Unlock()

	r.opts.debug("new connection", log.Any(constant.LogKeyRemoteAddr, s.RemoteAddr()))

	s.OnClose(func() { r.forget(s) })

	return true
}

func (r *ConnectionRegistry) forget(s Socket) {
	r.mu.Lock()
	if _, ok := r.conns[s]; !ok {
		r.mu.Unlock()
		return
	}

	delete(r.conns, s)
	r.publish(len(r.conns))
	r.mu.Unlock()

	r.opts.debug("connection closed", log.Any(constant.LogKeyRemoteAddr, s.RemoteAddr()))
}

// CloseAllConnections ends every tracked socket and empties the registry.
//
// Each socket gets keep-alive disabled, an end of stream and an unref, in that
// order. Errors from individual sockets are logged and do not stop the pass.
// It returns the number of sockets processed.
func (r *ConnectionRegistry) CloseAllConnections() int {
	r.mu.Lock()
	snapshot := make([]Socket, 0, len(r.conns))
	for s := range r.conns {
		snapshot = append(snapshot, s)
	}

	r.conns = make(map[Socket]struct{})
	r.publish(0)
	r.mu.Unlock()

	r.opts.debug("closing sockets", log.Int(constant.LogKeyOpenConnections, len(snapshot)))

	for _, s := range snapshot {
		if err := s.SetKeepAlive(false); err != nil {
			r.opts.debug("disable keep-alive failed", log.Any(constant.LogKeyRemoteAddr, s.RemoteAddr()), log.Err(err))
		}

		if err := s.End(); err != nil {
			r.opts.debug("end connection failed", log.Any(constant.LogKeyRemoteAddr, s.RemoteAddr()), log.Err(err))
		}

		s.Unref()
	}

	if r.opts.metrics != nil && len(snapshot) > 0 {
		r.opts.warnOnMetricError(
			r.opts.metrics.RecordForcedConnectionCloses(context.Background(), r.opts.server, len(snapshot)),
			constant.MetricForcedConnectionClosesTotal,
		)
	}

	return len(snapshot)
}

// Len returns the number of tracked sockets.
func (r *ConnectionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.conns)
}

// publish records count. Callers hold r.mu so gauge updates keep their order.
func (r *ConnectionRegistry) publish(count int) {
	if r.opts.metrics == nil {
		return
	}

	r.opts.warnOnMetricError(
		r.opts.metrics.RecordOpenConnections(context.Background(), r.opts.server, count),
		constant.MetricOpenConnections,
	)
}
