package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/go-telegram/bot"
)

// Webhook paths served by this process. The token-bearing path is what gets
// registered with Telegram for each minion; MainWebhookPath for the main bot.
const (
	MainWebhookPath   = "/webhook/telegram/main"
	MinionWebhookPath = "/webhook/telegram/{token}"
)

// MainWebhookURL builds the public callback URL for the main instance.
func MainWebhookURL(baseURL string) (string, error) {
	return joinURL(baseURL, "webhook", "telegram", "main")
}

// MinionWebhookURL builds the public callback URL for a minion token.
func MinionWebhookURL(baseURL, token string) (string, error) {
	return joinURL(baseURL, "webhook", "telegram", token)
}

func joinURL(baseURL string, elems ...string) (string, error) {
	u, err := url.JoinPath(baseURL, elems...)
	if err != nil {
		return "", fmt.Errorf("build webhook url from %q: %w", baseURL, err)
	}
	return u, nil
}

// Registrar registers a callback URL for a handle with the remote platform.
// It is an interface so the HTTP layer and dispatch handlers can be tested
// without network access.
type Registrar interface {
	RegisterWebhook(ctx context.Context, h *Handle, callbackURL string) error
}

// apiRegistrar registers webhooks through the Telegram setWebhook call.
type apiRegistrar struct {
	logger      *slog.Logger
	dropPending bool
}

// NewRegistrar returns a Registrar backed by the Telegram API. dropPending
// discards updates queued while no webhook was registered.
func NewRegistrar(logger *slog.Logger, dropPending bool) Registrar {
	if logger == nil {
		logger = slog.Default()
	}
	return &apiRegistrar{
		logger:      logger.With("component", "webhook_registrar"),
		dropPending: dropPending,
	}
}

func (r *apiRegistrar) RegisterWebhook(ctx context.Context, h *Handle, callbackURL string) error {
	ok, err := h.API().SetWebhook(ctx, &bot.SetWebhookParams{
		URL:                callbackURL,
		DropPendingUpdates: r.dropPending,
	})
	if err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	if !ok {
		return fmt.Errorf("set webhook: telegram declined url %q", callbackURL)
	}

	r.logger.InfoContext(ctx, "Registered webhook", "token_prefix", MaskToken(h.Token()), "url", callbackURL)
	return nil
}
