package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. Read and write timeouts leave headroom over the
// per-request handler timeout, so a slow ledger commit surfaces as a JSON
// timeout error instead of a severed connection. Write timeout covers both
// transfer legs.
func New(addr string, handler http.Handler, opTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       opTimeout + 5*time.Second,
		WriteTimeout:      2*opTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
