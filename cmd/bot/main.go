// Package main contains the entrypoint for the multi-bot webhook server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edgard/swarmbot/internal/bot"
	"github.com/edgard/swarmbot/internal/bot/tasks"
	"github.com/edgard/swarmbot/internal/config"
	"github.com/edgard/swarmbot/internal/database"
	"github.com/edgard/swarmbot/internal/dispatch"
	"github.com/edgard/swarmbot/internal/logger"
	"github.com/edgard/swarmbot/internal/registry"
	"github.com/edgard/swarmbot/internal/telegram"
	"github.com/edgard/swarmbot/internal/webhook"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger,
// database, bot instances, webhook server, scheduler), handles graceful
// shutdown, and returns an exit code.
func run(ctx context.Context) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	db, err := database.NewDB(cfg.Database)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	mainHandle, err := telegram.NewHandle(cfg.Telegram.Token, log)
	if err != nil {
		log.Error("Failed to create main bot instance", "error", err)
		return 1
	}
	log.Info("Main bot instance created", "token", telegram.MaskToken(mainHandle.Token()))

	minions := registry.New(log, func(_ context.Context, token string) (*telegram.Handle, error) {
		h, err := telegram.NewHandle(token, log)
		if err != nil {
			return nil, err
		}
		webhook.ObserveInstanceCreated()
		return h, nil
	})

	registrar := telegram.NewRegistrar(log, cfg.Telegram.DropPendingUpdates)
	dispatcher := dispatch.NewDispatcher(dispatch.HandlerDeps{
		Logger:    log,
		Config:    cfg,
		Registrar: registrar,
		Store:     store,
	})

	server := webhook.NewServer(log, cfg, mainHandle, minions, dispatcher, registrar, store)

	taskMap := tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:   log,
		Store:    store,
		Registry: minions,
		Config:   cfg,
	})
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, taskMap)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, cfg, server, minions, sched)

	log.Info("Starting application...")
	runErr := app.Run(ctx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Application stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Application stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
