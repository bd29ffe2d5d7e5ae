package shutdown

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	constant "github.com/LerianStudio/lib-http-shutdown/graceful/constants"
	"github.com/LerianStudio/lib-http-shutdown/graceful/log"
	"github.com/LerianStudio/lib-http-shutdown/graceful/opentelemetry/metrics"
	"github.com/LerianStudio/lib-http-shutdown/graceful/runtime"
	"github.com/LerianStudio/lib-http-shutdown/graceful/tracker"
)

// State is the lifecycle stage of a Coordinator. It only moves forward.
type State int

const (
	// StateRunning accepts connections and serves requests.
	StateRunning State = iota
	// StateClosing no longer accepts connections and waits for pending responses.
	StateClosing
	// StateTerminated has ended every tracked connection.
	StateTerminated
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateClosing:
		return "closing"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Server is the part of a network server a Coordinator drives.
//
// listener.Listener implements it for any server that serves a net.Listener.
type Server interface {
	// OnConnection registers fn to run for every accepted connection.
	OnConnection(fn func(tracker.Socket))
	// OnClose registers fn to run once the server stops accepting.
	OnClose(fn func())
	// Close stops accepting new connections.
	Close() error
}

// Coordinator drives one server from running to terminated.
type Coordinator struct {
	mu        sync.Mutex
	state     State
	server    Server
	callback  func()
	closingAt time.Time
	done      chan struct{}

	connections *tracker.ConnectionRegistry
	responses   *tracker.ResponseTracker

	// active maps a net/http connection to the response it is currently serving.
	activeMu sync.Mutex
	active   map[net.Conn]*tracker.ResponseHandle

	name    string
	logger  log.Logger
	metrics *metrics.MetricsFactory
}

// New returns a running Coordinator with no server attached.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		state:  StateRunning,
		done:   make(chan struct{}),
		active: make(map[net.Conn]*tracker.ResponseHandle),
		name:   DefaultName,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	c.logger = log.OrNop(c.logger).With(
		log.String(constant.LogKeyComponent, "shutdown"),
		log.String(constant.LogKeyServer, c.name),
	)

	trackerOpts := []tracker.Option{tracker.WithLogger(c.logger)}
	if c.metrics != nil {
		trackerOpts = append(trackerOpts, tracker.WithMetrics(c.metrics, c.name))
	}

	c.connections = tracker.NewConnectionRegistry(trackerOpts...)
	c.responses = tracker.NewResponseTracker(c.connections, trackerOpts...)
	c.responses.OnDrained(func() { c.tryShutdown(false) })

	return c
}

// Attach hooks the coordinator to server. Every connection the server accepts
// from now on is tracked until it closes.
func (c *Coordinator) Attach(server Server) error {
	if server == nil {
		return ErrNilServer
	}

	c.mu.Lock()
	if c.server != nil {
		c.mu.Unlock()
		return ErrAlreadyAttached
	}

	c.server = server
	c.mu.Unlock()

	server.OnConnection(func(s tracker.Socket) {
		c.connections.TrackConnection(s)
	})

	server.OnClose(func() {
		c.logger.Log(context.Background(), log.LevelInfo, "server stopped accepting connections",
			log.Int(constant.LogKeyPendingResponses, c.responses.PendingResponses()),
			log.Int(constant.LogKeyOpenConnections, c.connections.Len()))
	})

	return nil
}

// Destroy stops the server accepting connections and terminates once no
// response is pending. cb runs once, right after every remaining connection
// was ended.
//
// When nothing is pending, termination and cb happen before Destroy returns.
// Calling Destroy again before termination replaces cb. Calls after
// termination do nothing. The error comes from closing the server.
func (c *Coordinator) Destroy(cb func()) error {
	err := c.beginClosing(cb, true)
	c.tryShutdown(false)

	return err
}

// ForceDestroy terminates immediately, ending connections that still host
// pending responses. A running coordinator first stops its server as Destroy
// would, keeping any callback already registered.
func (c *Coordinator) ForceDestroy() error {
	err := c.beginClosing(nil, false)

	if pending := c.responses.PendingResponses(); pending > 0 {
		c.logger.Log(context.Background(), log.LevelWarn, "forcing shutdown with pending responses",
			log.Int(constant.LogKeyPendingResponses, pending))
	}

	c.tryShutdown(true)

	return err
}

// Shutdown destroys the coordinator and waits for it to terminate.
//
// When ctx expires first, Shutdown forces termination and returns an error
// matching both ErrShutdownTimeout and the context error.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	closeErr := c.beginClosing(nil, false)
	c.tryShutdown(false)

	select {
	case <-c.done:
		return closeErr
	case <-ctx.Done():
	}

	if c.State() == StateTerminated {
		return closeErr
	}

	forceErr := c.ForceDestroy()

	return errors.Join(closeErr, forceErr, fmt.Errorf("%w: %w", ErrShutdownTimeout, ctx.Err()))
}

// beginClosing moves a running coordinator to closing and stops its server.
// When setCallback is true cb becomes the completion callback.
func (c *Coordinator) beginClosing(cb func(), setCallback bool) error {
	c.mu.Lock()

	switch c.state {
	case StateTerminated:
		c.mu.Unlock()
		return nil
	case StateClosing:
		if setCallback {
			c.callback = cb
		}

		c.mu.Unlock()

		return nil
	}

	c.state = StateClosing
	c.closingAt = time.Now()

	if setCallback {
		c.callback = cb
	}

	server := c.server
	c.mu.Unlock()

	c.logger.Log(context.Background(), log.LevelInfo, "shutting down",
		log.Int(constant.LogKeyPendingResponses, c.responses.PendingResponses()),
		log.Int(constant.LogKeyOpenConnections, c.connections.Len()))

	if server == nil {
		return nil
	}

	if err := server.Close(); err != nil {
		log.SafeError(c.logger, context.Background(), "server close failed", err, runtime.IsProductionMode())
		return err
	}

	return nil
}

// tryShutdown terminates when closing and nothing is pending, or when forced.
// Termination happens at most once.
func (c *Coordinator) tryShutdown(force bool) {
	c.mu.Lock()

	pending := c.responses.PendingResponses()

	c.logger.Log(context.Background(), log.LevelDebug, "checking shutdown conditions",
		log.String(constant.LogKeyState, c.state.String()),
		log.Int(constant.LogKeyPendingResponses, pending))

	if c.state != StateClosing || (pending > 0 && !force) {
		c.mu.Unlock()
		return
	}

	c.state = StateTerminated
	cb := c.callback
	c.callback = nil
	elapsed := time.Since(c.closingAt)
	c.mu.Unlock()

	ended := c.connections.CloseAllConnections()
	close(c.done)

	c.recordDrain(elapsed, pending > 0)

	c.logger.Log(context.Background(), log.LevelInfo, "shutdown complete",
		log.Int(constant.LogKeyOpenConnections, ended),
		log.Int(constant.LogKeyPendingResponses, pending),
		log.Duration("elapsed", elapsed))

	if cb != nil {
		c.runCallback(cb)
	}
}

func (c *Coordinator) recordDrain(elapsed time.Duration, forced bool) {
	if c.metrics == nil {
		return
	}

	if err := c.metrics.RecordDrainDuration(context.Background(), c.name, elapsed, forced); err != nil {
		c.logger.Log(context.Background(), log.LevelWarn, "failed to record drain duration", log.Err(err))
	}
}

func (c *Coordinator) runCallback(cb func()) {
	defer runtime.RecoverAndLogWithContext(context.Background(), c.logger, "shutdown", "destroy_callback")

	cb()
}

// Done is closed once the coordinator terminated.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// State returns the current lifecycle stage.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Name returns the server name used in logs and metrics.
func (c *Coordinator) Name() string {
	return c.name
}

// PendingResponses returns the number of responses still in flight.
func (c *Coordinator) PendingResponses() int {
	return c.responses.PendingResponses()
}

// OpenConnections returns the number of tracked connections.
func (c *Coordinator) OpenConnections() int {
	return c.connections.Len()
}

// Tracker exposes the response tracker for adapters that serve requests
// outside net/http.
func (c *Coordinator) Tracker() *tracker.ResponseTracker {
	return c.responses
}
