// Package http adapts the shutdown coordinator to Fiber and fasthttp servers.
//
// Fiber:
//
//	app := fiber.New()
//	ghttp.ConfigureFiberApp(coord, app)
//	app.Use(ghttp.WithGracefulShutdown(coord))
//	go app.Listener(ln)
//
// Plain fasthttp:
//
//	srv := &fasthttp.Server{Handler: handler}
//	ghttp.WrapFastHTTPServer(coord, srv)
//	go srv.Serve(ln)
package http
