// Package server exposes the payment orchestration over a browser-facing
// HTTP API. The server is stateless: everything needed to resume a payment
// after consent travels in the session bundle held by the caller.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	openpay "github.com/vitwit/openpay"
	"github.com/vitwit/openpay/logger"
)

const shutdownTimeout = 10 * time.Second

// Config configures the HTTP surface.
type Config struct {
	Port          int
	AllowedOrigin string
}

// Server wires the API routes around the orchestrator.
type Server struct {
	cfg    Config
	engine *gin.Engine
	pay    *openpay.OpenPay
	log    logger.Logger
}

// New builds the router. Only the configured origin may call the payment
// endpoints.
func New(pay *openpay.OpenPay, cfg Config, log logger.Logger) *Server {
	if log == nil {
		log = logger.NoopLogger{}
	}

	s := &Server{cfg: cfg, pay: pay, log: log}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware(cfg.AllowedOrigin))

	api := engine.Group("/api")
	api.POST("/start-pay", s.handleStartPay)
	api.POST("/complete-pay", s.handleCompletePay)

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine = engine
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("payment server listening", map[string]any{"port": s.cfg.Port})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.log.Info("shutting down payment server", nil)
	return srv.Shutdown(shutdownCtx)
}
