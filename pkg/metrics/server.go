package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/investai/radar/pkg/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Server exposes the default prometheus registry on /metrics while a command runs.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
}

func NewServer(address string) *Server {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		log.ScrapeLogger("metrics_server"),
	)
	router.Handle("/metrics", promhttp.Handler())

	return &Server{
		httpServer: &http.Server{Addr: address, Handler: router, ReadHeaderTimeout: 10 * time.Second},
	}
}

// Start binds the listener and serves in the background until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.listener = listener

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Named("metrics_server").Errorw("metrics server stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		_ = s.Stop()
	}()

	zap.S().Named("metrics_server").Infof("serving metrics on %s", listener.Addr())
	return nil
}

// Addr returns the bound address, useful when started on port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.httpServer.Addr
	}
	return s.listener.Addr().String()
}

func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
