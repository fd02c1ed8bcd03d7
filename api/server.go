package api

import (
	"context"
	_ "embed"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"growth-scraper/config"
	"growth-scraper/utils"
)

const (
	readTimeout  = 10 * time.Second
	idleTimeout  = 120 * time.Second
	shutdownWait = 10 * time.Second
)

//go:embed dashboard.html
var dashboardHTML []byte

// Server represents the HTTP server
type Server struct {
	server *http.Server
	logger *utils.Logger
}

// NewServer creates the dashboard server. The write timeout leaves room
// for a synchronous collection triggered by POST /api/v1/runs.
func NewServer(cfg *config.Config, h *Handler, metrics *utils.Metrics, logger *utils.Logger) *Server {
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := NewRouter(h, metrics, logger)
	return &Server{
		logger: logger,
		server: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  readTimeout,
			WriteTimeout: cfg.CollectTimeout*time.Duration(max(cfg.MaxRetries, 1)) + 30*time.Second,
			IdleTimeout:  idleTimeout,
		},
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[api] Dashboard listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("[api] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
