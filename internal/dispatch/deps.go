package dispatch

import (
	"log/slog"

	"github.com/edgard/swarmbot/internal/config"
	"github.com/edgard/swarmbot/internal/database"
	"github.com/edgard/swarmbot/internal/telegram"
)

// HandlerDeps provides dependencies for update handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Registrar telegram.Registrar
	Store     database.Store
}
