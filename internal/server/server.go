package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/citypulse/citypulse-ai/internal/config"
	"github.com/citypulse/citypulse-ai/internal/middleware"
	"github.com/citypulse/citypulse-ai/internal/pattern"
)

// Server exposes the pattern engine over HTTP and WebSocket.
type Server struct {
	config *config.Config

	// Core components
	engine  *pattern.Engine
	hub     *AlertHub
	limiter *middleware.RateLimiter
	log     *zap.Logger

	// HTTP server
	httpServer *http.Server

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// State
	mu      sync.RWMutex
	running bool
}

// NewServer creates a new citypulse-ai server.
func NewServer(cfg *config.Config, engine *pattern.Engine, hub *AlertHub, log *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	srv := &Server{
		config:  cfg,
		engine:  engine,
		hub:     hub,
		limiter: middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}

	return srv, nil
}

// Start starts the server.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.running = true
	s.mu.Unlock()

	mux := http.NewServeMux()
	s.registerHandlers(mux)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.log.Info("starting HTTP server", zap.Int("port", s.config.Server.Port))
		var err error
		if s.config.Server.TLSEnabled {
			err = s.httpServer.ListenAndServeTLS(s.config.Server.TLSCertPath, s.config.Server.TLSKeyPath)
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.log.Error("HTTP server error", zap.Error(err))
		}
	}()

	s.log.Info("citypulse-ai server started",
		zap.String("cluster_policy", s.config.Pattern.ClusterPolicy),
		zap.String("history_backend", s.config.History.Backend),
		zap.Bool("cache_enabled", s.config.Cache.EnableCaching))

	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is not running")
	}
	s.running = false
	s.mu.Unlock()

	s.log.Info("stopping citypulse-ai server")

	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Error("error shutting down HTTP server", zap.Error(err))
		}
	}

	if s.hub != nil {
		s.hub.CloseAll()
	}
	s.limiter.Stop()
	s.cancel()
	s.wg.Wait()

	s.log.Info("citypulse-ai server stopped")
	return nil
}

// Wait blocks until the server is stopped.
func (s *Server) Wait() {
	<-s.ctx.Done()
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// registerHandlers registers HTTP handlers.
func (s *Server) registerHandlers(mux *http.ServeMux) {
	// Health and readiness
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/info", s.handleInfo)

	// Ingest (rate limited)
	mux.HandleFunc("/api/v1/incidents", s.limiter.Middleware(s.handleRecordIncident))

	// Analysis
	mux.HandleFunc("/api/v1/analyze/cluster", s.handleAnalyzeCluster)
	mux.HandleFunc("/api/v1/analyze/anomaly", s.handleAnalyzeAnomaly)
	mux.HandleFunc("/api/v1/risk", s.handleRisk)

	// Alert stream
	if s.hub != nil {
		mux.HandleFunc("/api/v1/alerts/stream", s.hub.HandleStream)
	}

	// Prometheus
	mux.Handle("/metrics", promhttp.Handler())
}
