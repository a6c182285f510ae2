package telegram

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidToken marks a credential token that is malformed and was
// rejected before any network call.
var ErrInvalidToken = errors.New("invalid bot token")

// tokenPattern matches the wire shape of a Telegram bot token: a numeric
// bot ID, a colon, and an opaque secret.
var tokenPattern = regexp.MustCompile(`^[0-9]+:[A-Za-z0-9_-]{30,}$`)

// ValidateToken checks the token's format. A passing token may still be
// rejected by the Telegram API; this only filters out values that cannot
// possibly be credentials.
func ValidateToken(token string) error {
	if !tokenPattern.MatchString(token) {
		return fmt.Errorf("%w: token does not match <bot_id>:<secret> format", ErrInvalidToken)
	}
	return nil
}
