package dispatch

import (
	"context"
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/swarmbot/internal/apicall"
	"github.com/edgard/swarmbot/internal/telegram"
)

// Request carries one inbound update through a handler.
type Request struct {
	Handle *telegram.Handle
	Update *models.Update
	// Args is the command argument text, empty for fallback dispatches.
	Args string
}

// HandlerFunc processes one update and returns the outbound call to send as
// the webhook response, or nil for no action.
type HandlerFunc func(ctx context.Context, req *Request) (*apicall.Call, error)

// command pairs a command name (without the leading slash) with its handler.
type command struct {
	name    string
	handler HandlerFunc
}

// Pipeline is an ordered set of command matchers plus an optional fallback
// applied to every non-matching message. Pipelines are built once at startup
// and never mutated, so they are safe for concurrent dispatches.
type Pipeline struct {
	commands []command
	fallback HandlerFunc
}

// Handle appends a command matcher. First match wins; each pipeline has at
// most one matcher per command name by construction.
func (p *Pipeline) Handle(name string, h HandlerFunc) *Pipeline {
	p.commands = append(p.commands, command{name: name, handler: h})
	return p
}

// Fallback sets the handler applied when no command matches.
func (p *Pipeline) Fallback(h HandlerFunc) *Pipeline {
	p.fallback = h
	return p
}

func (p *Pipeline) match(name string) (HandlerFunc, bool) {
	for _, c := range p.commands {
		if c.name == name {
			return c.handler, true
		}
	}
	return nil, false
}

// parseCommand splits a message text of the form "/name[@botname] args" into
// the command name and its argument string. ok is false for plain messages.
func parseCommand(text string) (name, args string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}

	head, rest, _ := strings.Cut(text[1:], " ")
	if head == "" {
		return "", "", false
	}
	// Commands in groups may be addressed as /start@somebot.
	head, _, _ = strings.Cut(head, "@")

	return head, strings.TrimSpace(rest), true
}
