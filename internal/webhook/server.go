// Package webhook exposes the HTTP surface receiving Telegram webhook
// callbacks and streaming encoded API calls back as response bodies.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edgard/swarmbot/internal/config"
	"github.com/edgard/swarmbot/internal/database"
	"github.com/edgard/swarmbot/internal/dispatch"
	"github.com/edgard/swarmbot/internal/logger"
	"github.com/edgard/swarmbot/internal/registry"
	"github.com/edgard/swarmbot/internal/telegram"
)

// Server routes inbound webhook requests to bot instances.
type Server struct {
	logger     *slog.Logger
	cfg        *config.Config
	main       *telegram.Handle
	minions    *registry.Registry
	dispatcher *dispatch.Dispatcher
	registrar  telegram.Registrar
	store      database.Store
	router     chi.Router
}

// NewServer wires the webhook routes. main is the pre-built main instance
// handle; minions supplies (and lazily creates) everything else.
func NewServer(
	log *slog.Logger,
	cfg *config.Config,
	main *telegram.Handle,
	minions *registry.Registry,
	dispatcher *dispatch.Dispatcher,
	registrar telegram.Registrar,
	store database.Store,
) *Server {
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		logger:     log.With("component", "webhook_server"),
		cfg:        cfg,
		main:       main,
		minions:    minions,
		dispatcher: dispatcher,
		registrar:  registrar,
		store:      store,
	}

	r := chi.NewRouter()
	r.Use(logger.Middleware(log))

	r.Get(telegram.MainWebhookPath, s.handleRegisterMain)
	r.Post(telegram.MainWebhookPath, s.handleMainUpdate)
	r.Post(telegram.MinionWebhookPath, s.handleMinionUpdate)

	r.Get("/metrics", MetricsHandler().ServeHTTP)
	r.Get("/healthz", s.handleHealth)

	s.router = r
	return s
}

// Handler returns the server's HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully within
// the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Web.ListenAddr,
		Handler: s.router,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.cfg.Web.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		s.logger.Info("HTTP server stopped gracefully")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	}
}
