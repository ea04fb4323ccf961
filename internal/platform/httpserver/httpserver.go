// Package httpserver constructs the engine's HTTP listener.
package httpserver

import (
	"net/http"
	"time"
)

// Timeouts bounds connection handling. Zero values fall back to
// defaults suited to a JSON API sitting behind a load balancer.
type Timeouts struct {
	ReadHeader time.Duration
	Read       time.Duration
	Write      time.Duration
	Idle       time.Duration
}

func (t Timeouts) withDefaults() Timeouts {
	if t.ReadHeader == 0 {
		t.ReadHeader = 5 * time.Second
	}
	if t.Read == 0 {
		t.Read = 15 * time.Second
	}
	if t.Write == 0 {
		t.Write = 30 * time.Second
	}
	if t.Idle == 0 {
		t.Idle = time.Minute
	}
	return t
}

// New builds the server serving the allocation and lifecycle routes.
func New(addr string, handler http.Handler, timeouts Timeouts) *http.Server {
	t := timeouts.withDefaults()
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: t.ReadHeader,
		ReadTimeout:       t.Read,
		WriteTimeout:      t.Write,
		IdleTimeout:       t.Idle,
	}
}
