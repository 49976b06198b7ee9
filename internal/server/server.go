// Package server exposes the news API over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deusflow/crednews/internal/logger"
)

const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 5 * time.Minute
	idleTimeout     = 2 * time.Minute
	shutdownTimeout = 30 * time.Second
)

// Options configures routing behaviour.
type Options struct {
	Port            int
	Production      bool
	IncludeAnalysis bool
	// Sources lists the configured upstream provider names.
	Sources []string
}

// NewRouter builds the gin engine with all routes. metricsHandler may be nil.
func NewRouter(h *Handler, metricsHandler http.Handler, log logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		RequestIDMiddleware(),
		LoggerMiddleware(log),
		CORSMiddleware(),
		RecoveryMiddleware(log),
	)

	router.GET("/health", h.HealthCheck)
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	api := router.Group("/api")
	{
		api.GET("/source", h.GetSources)

		n := api.Group("/news")
		n.GET("", h.GetNews)
		n.GET("/history/:date", h.GetHistory)
		n.GET("/topic/:topic", h.GetByTopic)
		n.GET("/search/:keyword", h.Search)
		n.GET("/stats", h.GetStats)
		n.GET("/summary/:date", h.GetDailySummary)
	}

	return router
}

// Server wraps http.Server with graceful shutdown.
type Server struct {
	srv *http.Server
	log logger.Logger
}

func New(router http.Handler, port int, log logger.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      router,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
		log: log,
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", logger.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
