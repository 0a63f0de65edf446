// Package server exposes the registry engine over a small JSON HTTP API.
//
// Transport concerns stop at this package: caller identity arrives
// pre-verified in the X-Identity header (an upstream gateway owns
// authentication), handlers translate between JSON and engine calls, and
// typed registry errors map onto HTTP status codes. The engine itself
// never sees HTTP.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/azureanc-hub/filevault/internal/logger"
	"github.com/azureanc-hub/filevault/internal/metrics"
	"github.com/azureanc-hub/filevault/internal/ratelimiter"
	"github.com/azureanc-hub/filevault/pkg/config"
	"github.com/azureanc-hub/filevault/pkg/engine"
)

// Server is the HTTP front end over an engine.
type Server struct {
	engine     *engine.Engine
	metrics    *metrics.Metrics
	limiter    *ratelimiter.Limiter
	httpServer *http.Server
	cfg        config.ServerConfig
}

// New creates a server for the given engine. Metrics may be nil to disable
// instrumentation.
func New(eng *engine.Engine, m *metrics.Metrics, cfg config.ServerConfig) *Server {
	s := &Server{
		engine:  eng,
		metrics: m,
		limiter: ratelimiter.New(cfg.RateLimit, cfg.RateBurst),
		cfg:     cfg,
	}
	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured timeout. Returns nil on clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening on %s", s.cfg.ListenAddr)
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down http server (timeout %s)", s.cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
