package dispatch

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/swarmbot/internal/apicall"
	"github.com/edgard/swarmbot/internal/telegram"
)

// Dispatcher holds the two statically built handler pipelines and routes
// each update through the one selected by role.
type Dispatcher struct {
	logger    *slog.Logger
	pipelines map[Role]*Pipeline
}

// NewDispatcher builds the main and minion pipelines from deps.
func NewDispatcher(deps HandlerDeps) *Dispatcher {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	main := (&Pipeline{}).
		Handle("start", newStartHandler(deps)).
		Handle("add_minion", newAddMinionHandler(deps)).
		Handle("minions", newMinionsHandler(deps)).
		Fallback(newEchoHandler(deps))

	minion := (&Pipeline{}).
		Handle("start", newMinionStartHandler(deps)).
		Fallback(newEchoHandler(deps))

	return &Dispatcher{
		logger: deps.Logger.With("component", "dispatcher"),
		pipelines: map[Role]*Pipeline{
			RoleMain:   main,
			RoleMinion: minion,
		},
	}
}

// Dispatch runs one update through the pipeline for role and returns the
// call the handler wants sent as the synchronous webhook reply, or nil when
// no action is required. Handler-internal failures (invalid minion token,
// missing arguments) are converted into user-visible replies by the handlers
// themselves; an error here means the dispatch itself failed.
func (d *Dispatcher) Dispatch(ctx context.Context, handle *telegram.Handle, role Role, update *models.Update) (*apicall.Call, error) {
	pipeline, ok := d.pipelines[role]
	if !ok || update == nil || update.Message == nil {
		return nil, nil
	}

	req := &Request{Handle: handle, Update: update}

	if name, args, isCommand := parseCommand(update.Message.Text); isCommand {
		if handler, found := pipeline.match(name); found {
			d.logger.DebugContext(ctx, "Dispatching command",
				"command", name,
				"role", role.String(),
				"update_id", update.ID)
			req.Args = args
			return handler(ctx, req)
		}
	}

	if pipeline.fallback != nil {
		return pipeline.fallback(ctx, req)
	}
	return nil, nil
}
