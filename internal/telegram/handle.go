// Package telegram wraps the go-telegram/bot client behind per-token
// handles and provides webhook URL registration against the Telegram API.
package telegram

import (
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
)

// Handle is one Telegram client identity, bound to a single credential
// token. Handles are created on first use and live for the process lifetime;
// there is no eviction.
type Handle struct {
	token string
	api   *bot.Bot
}

// NewHandle validates the token format and builds a client for it. No
// network call is made here; the token is only verified against the API when
// the handle is first used (e.g. to register a webhook). opts are forwarded
// to the underlying client.
func NewHandle(token string, logger *slog.Logger, opts ...bot.Option) (*Handle, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := ValidateToken(token); err != nil {
		return nil, err
	}

	api, err := bot.New(token, append([]bot.Option{bot.WithSkipGetMe()}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create telegram client: %w", err)
	}

	logger.Debug("Created Telegram handle", "token_prefix", MaskToken(token))
	return &Handle{token: token, api: api}, nil
}

// Token returns the credential token this handle is keyed by.
func (h *Handle) Token() string {
	return h.token
}

// API exposes the underlying client for outbound calls.
func (h *Handle) API() *bot.Bot {
	return h.api
}

// MaskToken returns a loggable, non-secret prefix of a token.
func MaskToken(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8] + "..."
}
