package http

import (
	"github.com/LerianStudio/lib-http-shutdown/graceful/shutdown"
	"github.com/gofiber/fiber/v2"
)

// WithGracefulShutdown returns Fiber middleware that tracks every request with
// coord, so the coordinator waits for it before ending connections.
//
// Register it first so it wraps every other handler.
func WithGracefulShutdown(coord *shutdown.Coordinator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if coord == nil {
			return c.Next()
		}

		var err error

		coord.TrackRequest(c.Context().Conn(), func() {
			err = c.Next()
		})

		return err
	}
}

// ConfigureFiberApp installs the coordinator connection hooks on the
// fasthttp server behind app. Call it before the app starts listening.
func ConfigureFiberApp(coord *shutdown.Coordinator, app *fiber.App) {
	if coord == nil || app == nil {
		return
	}

	ConfigureFastHTTPServer(coord, app.Server())
}
