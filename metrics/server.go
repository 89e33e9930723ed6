package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 2 * time.Second

// Server serves /metrics for one registry
// Implements service.Service
type Server struct {
	addr     string
	gatherer prometheus.Gatherer
	logger   logr.Logger

	srv      *http.Server
	listener net.Listener
	done     chan struct{}
}

// NewServer creates a metrics server; an empty addr yields a server whose Start is a no-op
func NewServer(addr string, gatherer prometheus.Gatherer, logger logr.Logger) *Server {
	return &Server{
		addr:     addr,
		gatherer: gatherer,
		logger:   logger.WithName("metrics"),
	}
}

// Name implements Service
func (s *Server) Name() string {
	return "metrics"
}

// Dependencies implements Service
func (s *Server) Dependencies() []string {
	return nil
}

// Init implements Service
func (s *Server) Init(ctx context.Context) error {
	if s.addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return nil
}

// Start implements Service; binds the listener synchronously so address errors surface here
func (s *Server) Start() error {
	if s.srv == nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("metrics listen on %s: %w", s.addr, err)
	}
	s.listener = ln
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(err, "Metrics server stopped")
		}
	}()
	s.logger.Info("Serving metrics", "addr", ln.Addr().String())
	return nil
}

// Stop implements Service; idempotent
func (s *Server) Stop() error {
	if s.srv == nil || s.done == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.srv.Shutdown(ctx)
	<-s.done
	s.srv = nil
	return err
}

// Addr returns the bound address, or "" before Start
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
