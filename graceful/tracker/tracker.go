package tracker

import (
	"context"
	"sync"

	constant "github.com/LerianStudio/lib-http-shutdown/graceful/constants"
	"github.com/LerianStudio/lib-http-shutdown/graceful/log"
	"github.com/google/uuid"
)

// ResponseTracker tracks in-flight responses and signals when none remain.
type ResponseTracker struct {
	mu          sync.Mutex
	responses   map[Response]string
	drained     []func()
	connections *ConnectionRegistry
	opts        options
}

// NewResponseTracker returns a tracker that records sockets in connections.
// A nil registry gets a private one built from opts.
func NewResponseTracker(connections *ConnectionRegistry, opts ...Option) *ResponseTracker {
	if connections == nil {
		connections = NewConnectionRegistry(opts...)
	}

	return &ResponseTracker{
		responses:   make(map[Response]string),
		connections: connections,
		opts:        buildOptions(opts),
	}
}

// Connections returns the registry sockets are recorded in.
func (t *ResponseTracker) Connections() *ConnectionRegistry {
	return t.connections
}

// OnDrained subscribes fn to the drained signal. The signal fires each time a
// finishing response leaves the tracker empty.
func (t *ResponseTracker) OnDrained(fn func()) {
	if fn == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.drained = append(t.drained, fn)
}

// WatchForResponseToComplete adds res and removes it once it finishes.
// Tracking the same response twice is ignored.
func (t *ResponseTracker) WatchForResponseToComplete(res Response) {
	if res == nil {
		return
	}

	t.mu.Lock()
	if _, ok := t.responses[res]; ok {
		t.mu.Unlock()
		return
	}

	id := newResponseID()
	t.responses[res] = id
	t.publish(len(t.responses))
	t.mu.Unlock()

	res.OnFinish(func() { t.complete(res) })
}

// WatchForConnectionToClose records s in the connection registry.
func (t *ResponseTracker) WatchForConnectionToClose(s Socket) {
	t.connections.TrackConnection(s)
}

// PendingResponses returns the number of responses that have not finished.
func (t *ResponseTracker) PendingResponses() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.responses)
}

// Track records res and its socket, then calls next exactly once.
// s may be nil when the transport socket is unknown.
func (t *ResponseTracker) Track(res Response, s Socket, next func()) {
	if s != nil {
		t.WatchForConnectionToClose(s)
	}

	t.WatchForResponseToComplete(res)

	if next != nil {
		next()
	}
}

func (t *ResponseTracker) complete(res Response) {
	t.mu.Lock()
	id, ok := t.responses[res]
	if !ok {
		t.mu.Unlock()
		return
	}

	delete(t.responses, res)
	count := len(t.responses)
	t.publish(count)

	var subscribers []func()
	if count == 0 {
		subscribers = append(subscribers, t.drained...)
	}
	t.mu.Unlock()

	t.opts.debug("response completed",
		log.String(constant.LogKeyResponseID, id),
		log.Int(constant.LogKeyPendingResponses, count))

	if count != 0 {
		return
	}

	t.opts.debug("tracker drained")

	for _, fn := range subscribers {
		fn()
	}
}

// publish records count. Callers hold t.mu.
func (t *ResponseTracker) publish(count int) {
	if t.opts.metrics == nil {
		return
	}

	t.opts.warnOnMetricError(
		t.opts.metrics.RecordPendingResponses(context.Background(), t.opts.server, count),
		constant.MetricPendingResponses,
	)
}

func newResponseID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}
