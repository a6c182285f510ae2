// Package bot orchestrates the lifecycle of the webhook server components.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/edgard/swarmbot/internal/config"
	"github.com/edgard/swarmbot/internal/registry"
	"github.com/edgard/swarmbot/internal/webhook"
)

// Bot represents the application and manages its components' lifecycle.
type Bot struct {
	logger    *slog.Logger
	cfg       *config.Config
	server    *webhook.Server
	minions   *registry.Registry
	scheduler *Scheduler
}

// NewBot creates a new instance of the application with all required
// dependencies wired.
func NewBot(
	logger *slog.Logger,
	cfg *config.Config,
	server *webhook.Server,
	minions *registry.Registry,
	scheduler *Scheduler,
) *Bot {
	if logger == nil {
		logger = slog.Default()
	}

	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		cfg:       cfg,
		server:    server,
		minions:   minions,
		scheduler: scheduler,
	}
}

// Run starts the webhook server and the scheduler, handling graceful
// shutdown on context cancellation. It returns an error if any component
// fails during startup or execution.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	// Instances are kept for the lifetime of the process and never evicted.
	b.logger.Warn("Instance registry grows unbounded; restart the process to clear it",
		"live_instances", b.minions.Len())

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting webhook server...", "listen_addr", b.cfg.Web.ListenAddr)

		if err := b.server.Run(gCtx); err != nil {
			b.logger.Error("Webhook server stopped with error", "error", err)
			return fmt.Errorf("webhook server: %w", err)
		}

		b.logger.Info("Webhook server stopped.")
		return nil
	})

	g.Go(func() error {
		b.logger.Info("Starting scheduler...")
		if err := b.scheduler.Start(); err != nil {
			b.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}

		return nil
	})

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
