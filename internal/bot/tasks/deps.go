// Package tasks implements the scheduled background tasks of the webhook
// server, together with their registration mechanism.
package tasks

import (
	"log/slog"

	"github.com/edgard/swarmbot/internal/config"
	"github.com/edgard/swarmbot/internal/database"
	"github.com/edgard/swarmbot/internal/registry"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Store    database.Store
	Registry *registry.Registry
	Config   *config.Config
}
