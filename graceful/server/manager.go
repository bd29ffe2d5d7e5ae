package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/LerianStudio/lib-http-shutdown/graceful/listener"
	"github.com/LerianStudio/lib-http-shutdown/graceful/log"
	ghttp "github.com/LerianStudio/lib-http-shutdown/graceful/net/http"
	"github.com/LerianStudio/lib-http-shutdown/graceful/opentelemetry/metrics"
	"github.com/LerianStudio/lib-http-shutdown/graceful/runtime"
	"github.com/LerianStudio/lib-http-shutdown/graceful/shutdown"
	"github.com/gofiber/fiber/v2"
	"google.golang.org/grpc"
)

// ErrNoServersConfigured indicates no servers were configured for the manager.
var ErrNoServersConfigured = errors.New("no servers configured: use WithHTTPServer(), WithFiberServer() or WithGRPCServer()")

type httpEntry struct {
	server  *http.Server
	address string
}

type fiberEntry struct {
	app     *fiber.App
	address string
}

// ServerManager starts the configured servers and shuts them down gracefully
// on SIGINT, SIGTERM, a closed shutdown channel or a server failure.
type ServerManager struct {
	httpServers        []httpEntry
	fiberServers       []fiberEntry
	grpcServer         *grpc.Server
	grpcAddress        string
	metrics            *metrics.MetricsFactory
	logger             log.Logger
	coordinators       []*shutdown.Coordinator
	serversStarted     chan struct{}
	serversStartedOnce sync.Once
	shutdownChan       <-chan struct{}
	shutdownOnce       sync.Once
	shutdownTimeout    time.Duration
	startupErrors      chan error
	shutdownErr        error
}

// NewServerManager creates a new instance of ServerManager.
// If logger is nil, a no-op logger is used.
func NewServerManager(logger log.Logger) *ServerManager {
	return &ServerManager{
		logger:          log.OrNop(logger),
		serversStarted:  make(chan struct{}),
		shutdownTimeout: defaultShutdownTimeout,
	}
}

// WithHTTPServer adds a net/http server listening on address.
// Its Handler is wrapped so requests are tracked during shutdown.
func (sm *ServerManager) WithHTTPServer(srv *http.Server, address string) *ServerManager {
	if srv != nil {
		sm.httpServers = append(sm.httpServers, httpEntry{server: srv, address: address})
	}

	return sm
}

// WithFiberServer adds a Fiber app listening on address.
func (sm *ServerManager) WithFiberServer(app *fiber.App, address string) *ServerManager {
	if app != nil {
		sm.fiberServers = append(sm.fiberServers, fiberEntry{app: app, address: address})
	}

	return sm
}

// WithGRPCServer configures the gRPC server for the ServerManager.
func (sm *ServerManager) WithGRPCServer(server *grpc.Server, address string) *ServerManager {
	sm.grpcServer = server
	sm.grpcAddress = address

	return sm
}

// WithShutdownChannel configures a custom shutdown channel for the ServerManager.
// This allows tests to trigger shutdown deterministically instead of relying on OS signals.
func (sm *ServerManager) WithShutdownChannel(ch <-chan struct{}) *ServerManager {
	sm.shutdownChan = ch

	return sm
}

// WithShutdownTimeout bounds how long shutdown waits for in-flight requests and
// for gRPC GracefulStop before forcing termination. Defaults to 30 seconds.
func (sm *ServerManager) WithShutdownTimeout(d time.Duration) *ServerManager {
	if d > 0 {
		sm.shutdownTimeout = d
	}

	return sm
}

// WithLogger replaces the logger. A nil logger is ignored.
func (sm *ServerManager) WithLogger(logger log.Logger) *ServerManager {
	if logger != nil {
		sm.logger = logger
	}

	return sm
}

// WithMetrics enables shutdown and panic metrics.
func (sm *ServerManager) WithMetrics(factory *metrics.MetricsFactory) *ServerManager {
	sm.metrics = factory

	return sm
}

// ServersStarted returns a channel that is closed once every listener is bound
// and the serving goroutines have been launched.
func (sm *ServerManager) ServersStarted() <-chan struct{} {
	return sm.serversStarted
}

// Coordinators returns the shutdown coordinators of the HTTP and Fiber servers,
// in the order they were configured. It is empty before the servers start.
func (sm *ServerManager) Coordinators() []*shutdown.Coordinator {
	return append([]*shutdown.Coordinator(nil), sm.coordinators...)
}

func (sm *ServerManager) validateConfiguration() error {
	if len(sm.httpServers) == 0 && len(sm.fiberServers) == 0 && sm.grpcServer == nil {
		return ErrNoServersConfigured
	}

	return nil
}

// initServers validates configuration, binds every listener and starts serving.
func (sm *ServerManager) initServers() error {
	if sm.serversStarted == nil {
		sm.serversStarted = make(chan struct{})
	}

	if err := sm.validateConfiguration(); err != nil {
		return err
	}

	if sm.metrics != nil {
		runtime.InitPanicMetrics(sm.metrics, sm.logger)
	}

	return sm.startServers()
}

// StartWithGracefulShutdownWithError validates configuration and starts servers.
// It blocks until shutdown completes and returns the configuration or bind
// error, or the error of a shutdown that had to be forced.
func (sm *ServerManager) StartWithGracefulShutdownWithError() error {
	if err := sm.initServers(); err != nil {
		return err
	}

	sm.handleShutdown()

	return sm.shutdownErr
}

// StartWithGracefulShutdown initializes all configured servers and sets up graceful shutdown.
// It terminates the process with os.Exit(1) if the servers cannot start.
// Use StartWithGracefulShutdownWithError() for proper error handling without process termination.
func (sm *ServerManager) StartWithGracefulShutdown() {
	if err := sm.initServers(); err != nil {
		// logFatal exits the process via os.Exit(1); code below is unreachable on error
		sm.logFatal(err.Error())
	}

	defer func() {
		if r := recover(); r != nil {
			runtime.HandlePanicValue(context.Background(), sm.logger, r, "server", "StartWithGracefulShutdown")

			sm.executeShutdown()

			os.Exit(1)
		}
	}()

	sm.handleShutdown()
}

func (sm *ServerManager) newCoordinator(kind string, index int) *shutdown.Coordinator {
	name := kind
	if index > 0 {
		name = fmt.Sprintf("%s-%d", kind, index)
	}

	opts := []shutdown.Option{shutdown.WithLogger(sm.logger), shutdown.WithName(name)}
	if sm.metrics != nil {
		opts = append(opts, shutdown.WithMetrics(sm.metrics))
	}

	return shutdown.New(opts...)
}

// bindAll opens every listener up front so bind failures are reported
// synchronously. On failure the listeners already opened are closed.
func (sm *ServerManager) bindAll() ([]*listener.Listener, net.Listener, error) {
	var bound []*listener.Listener

	release := func() {
		for _, ln := range bound {
			_ = ln.Close()
		}
	}

	for _, entry := range sm.httpServers {
		ln, err := listener.Listen("tcp", entry.address)
		if err != nil {
			release()
			return nil, nil, fmt.Errorf("HTTP listen on %s: %w", entry.address, err)
		}

		bound = append(bound, ln)
	}

	for _, entry := range sm.fiberServers {
		ln, err := listener.Listen("tcp", entry.address)
		if err != nil {
			release()
			return nil, nil, fmt.Errorf("Fiber listen on %s: %w", entry.address, err)
		}

		bound = append(bound, ln)
	}

	if sm.grpcServer == nil {
		return bound, nil, nil
	}

	grpcListener, err := net.Listen("tcp", sm.grpcAddress)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("gRPC listen on %s: %w", sm.grpcAddress, err)
	}

	return bound, grpcListener, nil
}

// startServers binds the listeners and serves each server in its own goroutine.
func (sm *ServerManager) startServers() error {
	bound, grpcListener, err := sm.bindAll()
	if err != nil {
		sm.logErrorf("Failed to bind servers: %v", err)
		return err
	}

	sm.startupErrors = make(chan error, len(bound)+1)

	for i, entry := range sm.httpServers {
		ln := bound[i]
		coord := sm.newCoordinator("http", i)

		if err := coord.Attach(ln); err != nil {
			sm.abortStart(bound, grpcListener)
			return fmt.Errorf("attach HTTP server on %s: %w", ln.Addr(), err)
		}

		handler := entry.server.Handler
		if handler == nil {
			handler = http.DefaultServeMux
		}

		entry.server.Handler = coord.Middleware()(handler)
		coord.ConfigureServer(entry.server)
		sm.coordinators = append(sm.coordinators, coord)

		sm.serve("start_http_server", "HTTP", ln, func() error { return entry.server.Serve(ln) })
	}

	for i, entry := range sm.fiberServers {
		ln := bound[len(sm.httpServers)+i]
		coord := sm.newCoordinator("fiber", i)

		if err := coord.Attach(ln); err != nil {
			sm.abortStart(bound, grpcListener)
			return fmt.Errorf("attach Fiber server on %s: %w", ln.Addr(), err)
		}

		ghttp.WrapFastHTTPServer(coord, entry.app.Server())
		sm.coordinators = append(sm.coordinators, coord)

		sm.serve("start_fiber_server", "Fiber", ln, func() error { return entry.app.Listener(ln) })
	}

	if sm.grpcServer != nil {
		sm.serve("start_grpc_server", "gRPC", grpcListener, func() error { return sm.grpcServer.Serve(grpcListener) })
	}

	sm.logInfof("Launched %d server goroutine(s)", len(bound)+boolToInt(sm.grpcServer != nil))

	sm.serversStartedOnce.Do(func() {
		close(sm.serversStarted)
	})

	return nil
}

// abortStart undoes a partial startServers: coordinators already attached
// are forced down, which closes their listeners and ends their connections,
// and every remaining listener is closed so the serve goroutines return.
func (sm *ServerManager) abortStart(bound []*listener.Listener, grpcListener net.Listener) {
	for _, coord := range sm.coordinators {
		_ = coord.ForceDestroy()
	}

	sm.coordinators = nil

	for _, ln := range bound {
		_ = ln.Close()
	}

	if grpcListener != nil {
		_ = grpcListener.Close()
	}
}

// serve runs fn in a recovered goroutine. Errors other than the listener
// being closed by shutdown are reported as startup errors.
func (sm *ServerManager) serve(name, kind string, ln net.Listener, fn func() error) {
	runtime.SafeGoWithContextAndComponent(
		context.Background(),
		sm.logger,
		"server",
		name,
		runtime.KeepRunning,
		func(_ context.Context) {
			sm.logInfof("Starting %s server on %s", kind, ln.Addr())

			err := fn()
			if err == nil || errors.Is(err, net.ErrClosed) || errors.Is(err, http.ErrServerClosed) || errors.Is(err, grpc.ErrServerStopped) {
				return
			}

			sm.logErrorf("%s server error: %v", kind, err)

			select {
			case sm.startupErrors <- fmt.Errorf("%s server: %w", kind, err):
			default:
			}
		},
	)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}

// logInfo safely logs an info message if logger is available
func (sm *ServerManager) logInfo(msg string) {
	if sm.logger != nil {
		sm.logger.Log(context.Background(), log.LevelInfo, msg)
	}
}

// logInfof safely logs a formatted info message if logger is available
func (sm *ServerManager) logInfof(format string, args ...any) {
	if sm.logger != nil {
		sm.logger.Log(context.Background(), log.LevelInfo, fmt.Sprintf(format, args...))
	}
}

// logErrorf safely logs an error message if logger is available
func (sm *ServerManager) logErrorf(format string, args ...any) {
	if sm.logger != nil {
		sm.logger.Log(context.Background(), log.LevelError, fmt.Sprintf(format, args...))
	}
}

// logFatal logs a fatal message and terminates the process with os.Exit(1).
func (sm *ServerManager) logFatal(msg string) {
	if sm.logger != nil {
		sm.logger.Log(context.Background(), log.LevelError, msg)
	} else {
		fmt.Println(msg)
	}

	os.Exit(1)
}

// handleShutdown waits for a termination signal, the shutdown channel or a
// server failure, then executes the shutdown sequence.
func (sm *ServerManager) handleShutdown() {
	if sm.shutdownChan != nil {
		select {
		case <-sm.shutdownChan:
		case err := <-sm.startupErrors:
			sm.logErrorf("Server failed: %v", err)
		}
	} else {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)

		select {
		case <-c:
			signal.Stop(c)
		case err := <-sm.startupErrors:
			signal.Stop(c)
			sm.logErrorf("Server failed: %v", err)
		}
	}

	sm.logInfo("Gracefully shutting down all servers...")

	sm.executeShutdown()
}

// executeShutdown performs the shutdown sequence once. HTTP and Fiber servers
// drain concurrently within the shutdown timeout and are forced afterwards.
func (sm *ServerManager) executeShutdown() {
	sm.shutdownOnce.Do(func() {
		select {
		case <-sm.serversStarted:
		default:
			sm.logInfo("Shutdown initiated before servers were fully started.")
		}

		sm.shutdownErr = sm.drainCoordinators()

		if sm.grpcServer != nil {
			sm.logInfo("Shutting down gRPC server...")

			done := make(chan struct{})

			go func() {
				sm.grpcServer.GracefulStop()
				close(done)
			}()

			select {
			case <-done:
				sm.logInfo("gRPC server stopped gracefully")
			case <-time.After(sm.shutdownTimeout):
				sm.logInfo("gRPC graceful stop timed out, forcing stop...")
				sm.grpcServer.Stop()
			}
		}

		if sm.logger != nil {
			sm.logInfo("Syncing logger...")

			if err := sm.logger.Sync(context.Background()); err != nil {
				sm.logErrorf("Failed to sync logger: %v", err)
			}
		}

		sm.logInfo("Graceful shutdown completed")
	})
}

func (sm *ServerManager) drainCoordinators() error {
	if len(sm.coordinators) == 0 {
		return nil
	}

	sm.logInfof("Draining %d HTTP server(s)...", len(sm.coordinators))

	ctx, cancel := context.WithTimeout(context.Background(), sm.shutdownTimeout)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, coord := range sm.coordinators {
		wg.Add(1)

		go func(coord *shutdown.Coordinator) {
			defer wg.Done()

			if err := coord.Shutdown(ctx); err != nil {
				sm.logErrorf("Error during %s server shutdown: %v", coord.Name(), err)

				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", coord.Name(), err))
				mu.Unlock()
			}
		}(coord)
	}

	wg.Wait()

	return errors.Join(errs...)
}
