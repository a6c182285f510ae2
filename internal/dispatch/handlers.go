package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/edgard/swarmbot/internal/apicall"
	"github.com/edgard/swarmbot/internal/telegram"
)

// Reply texts. The command replies are part of the bot's observable
// behavior; tests assert them verbatim.
const (
	msgWelcome       = "Hello, create new minion with /add_minion <TOKEN>"
	msgNoToken       = "No token provided, usage /add_minion <TOKEN>"
	msgInvalidToken  = "Invalid token"
	msgMinionAdded   = "Minion added"
	msgMinionWelcome = "Hello, world!"
	msgNoMinions     = "No minions seen yet"
	msgGeneralError  = "An error occurred. Please try again later."
)

// reply builds a sendMessage call answering the inbound message's chat.
func reply(req *Request, text string) *apicall.Call {
	return apicall.SendMessage(req.Update.Message.Chat.ID, text)
}

// newStartHandler greets users of the main instance.
func newStartHandler(HandlerDeps) HandlerFunc {
	return func(_ context.Context, req *Request) (*apicall.Call, error) {
		return reply(req, msgWelcome), nil
	}
}

// newAddMinionHandler registers a new minion identity: it validates the
// token, builds a client for it, and registers the minion's callback URL
// with Telegram. All failures are surfaced as reply text; the webhook
// request itself always succeeds. The minion's handle is not installed
// here; it is created lazily by the first update Telegram delivers to the
// minion's own webhook path.
func newAddMinionHandler(deps HandlerDeps) HandlerFunc {
	log := deps.Logger.With("handler", "add_minion")

	return func(ctx context.Context, req *Request) (*apicall.Call, error) {
		token := strings.TrimSpace(req.Args)
		if token == "" {
			return reply(req, msgNoToken), nil
		}

		minion, err := telegram.NewHandle(token, deps.Logger)
		if err != nil {
			log.InfoContext(ctx, "Rejected minion token", "error", err)
			return reply(req, msgInvalidToken), nil
		}

		callbackURL, err := telegram.MinionWebhookURL(deps.Config.Web.PublicURL, token)
		if err != nil {
			log.ErrorContext(ctx, "Failed to build minion webhook url", "error", err)
			return reply(req, msgGeneralError), nil
		}

		if err := deps.Registrar.RegisterWebhook(ctx, minion, callbackURL); err != nil {
			log.WarnContext(ctx, "Failed to register minion webhook",
				"error", err,
				"token_prefix", telegram.MaskToken(token))
			return reply(req, msgInvalidToken), nil
		}

		log.InfoContext(ctx, "Minion registered", "token_prefix", telegram.MaskToken(token))
		return reply(req, msgMinionAdded), nil
	}
}

// newMinionsHandler reports the minions recorded in the activity store.
func newMinionsHandler(deps HandlerDeps) HandlerFunc {
	log := deps.Logger.With("handler", "minions")

	return func(ctx context.Context, req *Request) (*apicall.Call, error) {
		minions, err := deps.Store.ListMinions(ctx)
		if err != nil {
			log.ErrorContext(ctx, "Failed to list minions", "error", err)
			return reply(req, msgGeneralError), nil
		}

		if len(minions) == 0 {
			return reply(req, msgNoMinions), nil
		}

		var report strings.Builder
		report.WriteString("Known minions:\n")
		for _, m := range minions {
			fmt.Fprintf(&report, "%s: %d updates, last seen %s\n",
				telegram.MaskToken(m.Token),
				m.UpdateCount,
				m.LastSeen.UTC().Format("2006-01-02 15:04"))
		}
		return reply(req, report.String()), nil
	}
}

// newMinionStartHandler greets users of a minion instance.
func newMinionStartHandler(HandlerDeps) HandlerFunc {
	return func(_ context.Context, req *Request) (*apicall.Call, error) {
		return reply(req, msgMinionWelcome), nil
	}
}

// newEchoHandler answers any plain message with its own text. Shared by the
// main and minion pipelines as their fallback.
func newEchoHandler(HandlerDeps) HandlerFunc {
	return func(_ context.Context, req *Request) (*apicall.Call, error) {
		text := req.Update.Message.Text
		if text == "" {
			return nil, nil
		}
		return reply(req, text), nil
	}
}
