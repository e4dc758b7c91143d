// Package server wires the HTTP server together: endpoint routes, the
// provider relay, and the services that flow to handlers via context.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/minjae-lee/settlescan/internal/api"
	"github.com/minjae-lee/settlescan/internal/config"
	"github.com/minjae-lee/settlescan/internal/extract"
	"github.com/minjae-lee/settlescan/internal/home"
	"github.com/minjae-lee/settlescan/internal/ledger"
	"github.com/minjae-lee/settlescan/internal/pages"
	"github.com/minjae-lee/settlescan/internal/providers"
	"github.com/minjae-lee/settlescan/internal/relay"
	"github.com/minjae-lee/settlescan/internal/server/endpoints"
	"github.com/minjae-lee/settlescan/internal/svcctx"
)

// Server is the settlescan HTTP server. It owns the page store, the usage
// ledger, the provider registry and the embedded relay.
type Server struct {
	httpServer *http.Server
	home       *home.Dir
	pageStore  *pages.Store
	registry   *providers.Registry
	configMgr  *config.Manager
	logger     *slog.Logger

	ledgerStore *ledger.Store
	usageLog    *ledger.Ledger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8315)
	Port string
	// Home is the settlescan home directory
	Home *home.Dir
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8315"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Home == nil {
		h, err := home.New("")
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.Home = h
	}

	// Create provider registry
	registry := providers.NewRegistry()
	registry.SetLogger(cfg.Logger)

	s := &Server{
		home:      cfg.Home,
		pageStore: pages.NewStore(),
		registry:  registry,
		configMgr: cfg.ConfigManager,
		logger:    cfg.Logger,
	}

	// If config manager provided, set up providers and hot reload
	if cfg.ConfigManager != nil {
		registry.Reload(s.registryConfig(cfg.ConfigManager.Get()))

		// Watch for config changes
		cfg.ConfigManager.OnChange(func(c *config.Config) {
			registry.Reload(s.registryConfig(c))
			cfg.Logger.Info("provider registry reloaded from config")
		})
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	// Mount the provider relay on the same mux so POST /api/<provider>
	// works against this server directly. The mux already serves /health.
	relay.New(cfg.Logger).RegisterProviders(mux)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withServices(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // extraction runs block the response
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts the server. It blocks until the context is cancelled or an
// error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if err := s.home.EnsureExists(); err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to prepare home directory: %w", err)
	}

	// Open the usage ledger
	store, err := ledger.OpenStore(s.home.LedgerDBPath())
	if err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to open usage ledger: %w", err)
	}
	s.ledgerStore = store
	s.usageLog = ledger.New(store, s.logger)

	orchestrator := extract.New(s.registry, s.usageLog, s.logger)

	// Create services struct for context enrichment
	s.services = &svcctx.Services{
		Pages:        s.pageStore,
		Registry:     s.registry,
		Orchestrator: orchestrator,
		Ledger:       s.usageLog,
		ConfigMgr:    s.configMgr,
		Logger:       s.logger,
		Home:         s.home,
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server and the ledger.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if s.ledgerStore != nil {
		if err := s.ledgerStore.Close(); err != nil {
			s.logger.Error("ledger close error", "error", err)
		}
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// Handler returns the server's HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// InitForTest opens services against a throwaway home, for handler tests.
func (s *Server) InitForTest() error {
	if err := s.home.EnsureExists(); err != nil {
		return err
	}
	store, err := ledger.OpenStore(s.home.LedgerDBPath())
	if err != nil {
		return err
	}
	s.ledgerStore = store
	s.usageLog = ledger.New(store, s.logger)
	s.services = &svcctx.Services{
		Pages:        s.pageStore,
		Registry:     s.registry,
		Orchestrator: extract.New(s.registry, s.usageLog, s.logger),
		Ledger:       s.usageLog,
		ConfigMgr:    s.configMgr,
		Logger:       s.logger,
		Home:         s.home,
	}
	return nil
}

// Close releases test resources.
func (s *Server) Close() error {
	if s.ledgerStore != nil {
		return s.ledgerStore.Close()
	}
	return nil
}

// registryConfig projects the config for the provider registry, dropping
// the relay URL when the relay does not answer its health probe so adapters
// fall back to calling providers directly.
func (s *Server) registryConfig(c *config.Config) providers.RegistryConfig {
	rc := c.ToRegistryConfig()
	if rc.RelayURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if !relay.Available(ctx, rc.RelayURL) {
			s.logger.Warn("relay not reachable, calling providers directly", "url", rc.RelayURL)
			rc.RelayURL = ""
		}
	}
	return rc
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable until the ledger is open.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.usageLog == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
