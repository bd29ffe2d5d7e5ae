// Package listener wraps a net.Listener so a shutdown coordinator can see
// every accepted connection and the moment the listener stops accepting.
//
//	ln, err := listener.Listen("tcp", ":8080")
//	if err != nil {
//		return err
//	}
//
//	coord := shutdown.New()
//	_ = coord.Attach(ln)
//
//	srv := &http.Server{Handler: coord.Middleware()(mux)}
//	coord.ConfigureServer(srv)
//	go srv.Serve(ln)
package listener
