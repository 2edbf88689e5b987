// Package httpserver builds the process's HTTP server.
package httpserver

import (
	"net/http"
	"time"
)

// Timeouts sized for small JSON payloads; the public verify path is the only
// unauthenticated surface and gets no special treatment here.
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	idleTimeout       = 60 * time.Second
)

// New builds the server with the project's defaults applied.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
	}
}
