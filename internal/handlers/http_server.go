package handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Lumerin-protocol/covered-call/internal/interfaces"
)

const shutdownTimeout = 10 * time.Second

// HTTPServer serves the handler until the context is cancelled, then shuts down gracefully
type HTTPServer struct {
	serverAddr string
	handler    http.Handler
	listening  chan net.Addr

	log interfaces.ILogger
}

func NewHTTPServer(serverAddr string, handler http.Handler, log interfaces.ILogger) *HTTPServer {
	return &HTTPServer{
		serverAddr: serverAddr,
		handler:    handler,
		listening:  make(chan net.Addr, 1),
		log:        log,
	}
}

// Listening yields the bound address once the server accepts connections
func (s *HTTPServer) Listening() <-chan net.Addr {
	return s.listening
}

func (s *HTTPServer) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.serverAddr)
	if err != nil {
		return fmt.Errorf("listener error %s %w", s.serverAddr, err)
	}

	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Infof("http server is listening: %s", listener.Addr())
	s.listening <- listener.Addr()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			return err
		}
		s.log.Infof("http server closed: %s", listener.Addr())
		return nil
	case err = <-serverErr:
	}

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
