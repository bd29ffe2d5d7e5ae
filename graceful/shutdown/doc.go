// Package shutdown coordinates the graceful shutdown of an HTTP server.
//
// A Coordinator attaches to a Server, tracks every connection it accepts and
// every response its handlers produce. Destroy stops the server accepting new
// connections, waits until no response is pending and then ends every socket
// that is still open, idle keep-alive connections included. Only then is the
// completion callback invoked and Done closed.
//
// There is no implicit timeout. A response that never finishes keeps the
// coordinator closing until ForceDestroy is called, or until the context given
// to Shutdown expires.
//
//	ln, _ := listener.Listen("tcp", ":8080")
//	coord := shutdown.New(shutdown.WithLogger(logger))
//	_ = coord.Attach(ln)
//
//	srv := &http.Server{Handler: coord.Middleware()(mux)}
//	coord.ConfigureServer(srv)
//	go srv.Serve(ln)
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//	err := coord.Shutdown(ctx)
package shutdown
