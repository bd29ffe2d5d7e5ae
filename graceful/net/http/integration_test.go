//go:build integration

package http

import (
	"bufio"
	"fmt"
	"io"
	"net"
	nethttp "net/http"
	"testing"
	"time"

	"github.com/LerianStudio/lib-http-shutdown/graceful/listener"
	"github.com/LerianStudio/lib-http-shutdown/graceful/shutdown"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_FiberIdleConnectionEndedOnDestroy(t *testing.T) {
	ln, err := listener.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	coord := shutdown.New(shutdown.WithName("fiber"))
	require.NoError(t, coord.Attach(ln))

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	ConfigureFiberApp(coord, app)
	app.Use(WithGracefulShutdown(coord))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	go func() { _ = app.Listener(ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)

	defer conn.Close()

	reader := bufio.NewReader(conn)

	_, err = fmt.Fprint(conn, "GET / HTTP/1.1\r\nHost: test\r\n\r\n")
	require.NoError(t, err)

	resp, err := nethttp.ReadResponse(reader, nil)
	require.NoError(t, err)

	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, "ok", string(body))

	assert.Eventually(t, func() bool { return coord.PendingResponses() == 0 }, 2*time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	require.NoError(t, coord.Destroy(func() { close(done) }))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not complete")
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	_, err = reader.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}

func TestIntegration_FiberPipelinedResponseSurvivesDestroy(t *testing.T) {
	ln, err := listener.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	coord := shutdown.New(shutdown.WithName("fiber"))
	require.NoError(t, coord.Attach(ln))

	release := make(chan struct{})

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	ConfigureFiberApp(coord, app)
	app.Use(WithGracefulShutdown(coord))
	app.Get("/a", func(c *fiber.Ctx) error {
		<-release
		return c.SendString("a")
	})
	app.Get("/b", func(c *fiber.Ctx) error { return c.SendString("b") })

	go func() { _ = app.Listener(ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)

	defer conn.Close()

	_, err = fmt.Fprint(conn,
		"GET /a HTTP/1.1\r\nHost: test\r\n\r\n"+
			"GET /b HTTP/1.1\r\nHost: test\r\n\r\n")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return coord.PendingResponses() == 1 }, 2*time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	require.NoError(t, coord.Destroy(func() { close(done) }))

	close(release)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	resp, err := nethttp.ReadResponse(bufio.NewReader(conn), nil)
	require.NoError(t, err, "the in-flight response must reach the client")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "a", string(body))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not complete")
	}
}
