//go:build integration

package server_test

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/LerianStudio/lib-http-shutdown/graceful/log"
	"github.com/LerianStudio/lib-http-shutdown/graceful/server"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// getFreePort allocates a free TCP port from the OS, closes the listener, and
// returns the address. There is a small TOCTOU window, but for integration
// tests on localhost this is reliable enough.
func getFreePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()

	require.NoError(t, l.Close())

	return addr
}

func startManager(t *testing.T, sm *server.ServerManager) <-chan error {
	t.Helper()

	resultCh := make(chan error, 1)

	go func() {
		resultCh <- sm.StartWithGracefulShutdownWithError()
	}()

	select {
	case <-sm.ServersStarted():
	case err := <-resultCh:
		t.Fatalf("manager exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("servers did not start")
	}

	return resultCh
}

// TestIntegration_ServerManager_HTTPDrainsInFlightRequest verifies that a
// request in flight when shutdown starts is answered in full, and that an idle
// keep-alive connection is ended instead of holding shutdown open.
func TestIntegration_ServerManager_HTTPDrainsInFlightRequest(t *testing.T) {
	addr := getFreePort(t)
	entered := make(chan struct{})
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/slow", func(w http.ResponseWriter, _ *http.Request) {
		close(entered)
		<-release
		_, _ = io.WriteString(w, "finished")
	})
	mux.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})

	shutdownChan := make(chan struct{})

	sm := server.NewServerManager(log.NewNop()).
		WithHTTPServer(&http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}, addr).
		WithShutdownChannel(shutdownChan).
		WithShutdownTimeout(10 * time.Second)

	resultCh := startManager(t, sm)

	idle, err := net.Dial("tcp", addr)
	require.NoError(t, err)

	defer idle.Close()

	idleReader := bufio.NewReader(idle)

	_, err = fmt.Fprint(idle, "GET /ping HTTP/1.1\r\nHost: test\r\n\r\n")
	require.NoError(t, err)

	resp, err := http.ReadResponse(idleReader, nil)
	require.NoError(t, err)

	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	bodyCh := make(chan string, 1)

	go func() {
		r, err := http.Get("http://" + addr + "/slow")
		if err != nil {
			bodyCh <- err.Error()
			return
		}

		defer r.Body.Close()

		b, _ := io.ReadAll(r.Body)
		bodyCh <- string(b)
	}()

	<-entered
	close(shutdownChan)

	time.Sleep(50 * time.Millisecond)
	close(release)

	assert.Equal(t, "finished", <-bodyCh)

	select {
	case err := <-resultCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("shutdown did not complete")
	}

	require.NoError(t, idle.SetReadDeadline(time.Now().Add(5*time.Second)))

	_, err = idleReader.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}

// TestIntegration_ServerManager_ForcedShutdown verifies that a handler that
// never returns is cut off once the shutdown timeout expires.
func TestIntegration_ServerManager_ForcedShutdown(t *testing.T) {
	addr := getFreePort(t)
	entered := make(chan struct{})
	stuck := make(chan struct{})

	t.Cleanup(func() { close(stuck) })

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/stuck", func(c *fiber.Ctx) error {
		close(entered)
		<-stuck

		return c.SendStatus(fiber.StatusOK)
	})

	shutdownChan := make(chan struct{})

	sm := server.NewServerManager(nil).
		WithFiberServer(app, addr).
		WithShutdownChannel(shutdownChan).
		WithShutdownTimeout(200 * time.Millisecond)

	resultCh := startManager(t, sm)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)

	defer conn.Close()

	_, err = fmt.Fprint(conn, "GET /stuck HTTP/1.1\r\nHost: test\r\n\r\n")
	require.NoError(t, err)

	<-entered
	close(shutdownChan)

	select {
	case err := <-resultCh:
		require.Error(t, err, "a forced shutdown is reported")
	case <-time.After(5 * time.Second):
		t.Fatal("forced shutdown did not complete")
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	_, err = bufio.NewReader(conn).ReadByte()
	assert.ErrorIs(t, err, io.EOF, "the stuck connection was ended")
}

// TestIntegration_ServerManager_GRPCLifecycle verifies gRPC serving and stop.
func TestIntegration_ServerManager_GRPCLifecycle(t *testing.T) {
	addr := getFreePort(t)

	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, health.NewServer())

	shutdownChan := make(chan struct{})

	sm := server.NewServerManager(nil).
		WithGRPCServer(grpcServer, addr).
		WithShutdownChannel(shutdownChan).
		WithShutdownTimeout(5 * time.Second)

	resultCh := startManager(t, sm)

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	close(shutdownChan)

	select {
	case err := <-resultCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("shutdown did not complete")
	}
}
