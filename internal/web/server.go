package web

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/uggedal/gitoff/internal"
)

type Server struct {
	server   *http.Server
	listener net.Listener
	port     int
	writer   internal.Writer
}

// NewServer starts serving handler on addr in a background goroutine. An
// addr with port 0 picks a free port, which Port reports. Returns an
// error if the listener cannot be created.
func NewServer(addr string, handler http.Handler, w internal.Writer) (Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return Server{}, fmt.Errorf("failed to listen on %q: %w\nCheck that the address is valid and not already in use", addr, err)
	}

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			w.Warningf("HTTP server error: %v", err)
		}
	}()

	_, portString, err := net.SplitHostPort(listener.Addr().String())
	if err != nil {
		server.Close()
		return Server{}, fmt.Errorf("failed to split listener host/port: %w", err)
	}

	port, err := strconv.ParseInt(portString, 10, 64)
	if err != nil {
		server.Close()
		return Server{}, fmt.Errorf("failed to parse listener port: %w", err)
	}

	return Server{
		listener: listener,
		server:   server,
		port:     int(port),
		writer:   w,
	}, nil
}

// Port returns the TCP port number the server is listening on.
func (s Server) Port() int {
	return s.port
}

// Close stops the server and closes the listener.
func (s Server) Close() error {
	err := s.server.Close()
	if err != nil {
		return err
	}

	err = s.listener.Close()
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}
