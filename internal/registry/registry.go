// Package registry maintains the process-wide mapping from credential token
// to lazily-created bot handle.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/edgard/swarmbot/internal/telegram"
)

// Factory builds the handle for a token seen for the first time. A factory
// failure installs nothing; the next request for the same token retries.
type Factory func(ctx context.Context, token string) (*telegram.Handle, error)

// Registry is an in-memory, grow-only map of token to handle. Minion
// identities are discovered from inbound traffic at runtime, so entries are
// created on first use and never evicted; growth over the process lifetime
// is unbounded (see the startup warning in the orchestrator).
type Registry struct {
	logger  *slog.Logger
	factory Factory

	group singleflight.Group

	mu      sync.RWMutex
	handles map[string]*telegram.Handle
}

// New creates an empty registry using factory for unseen tokens.
func New(logger *slog.Logger, factory Factory) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:  logger.With("component", "registry"),
		factory: factory,
		handles: make(map[string]*telegram.Handle),
	}
}

// Put installs a pre-built handle, keyed by its own token. Used for the main
// instance, which is constructed from configuration rather than traffic.
func (r *Registry) Put(h *telegram.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[h.Token()] = h
}

// GetOrCreate returns the handle for token, constructing it through the
// factory if the token has not been seen. Concurrent first requests for the
// same token are collapsed into a single factory call and all callers
// observe the same handle.
func (r *Registry) GetOrCreate(ctx context.Context, token string) (*telegram.Handle, error) {
	r.mu.RLock()
	h, ok := r.handles[token]
	r.mu.RUnlock()
	if ok {
		return h, nil
	}

	v, err, _ := r.group.Do(token, func() (any, error) {
		// A racing caller may have finished construction between the read
		// above and entering the flight.
		r.mu.RLock()
		h, ok := r.handles[token]
		r.mu.RUnlock()
		if ok {
			return h, nil
		}

		// The flight is shared by every caller waiting on this token, so
		// construction must not die with the first caller's request.
		h, err := r.factory(context.WithoutCancel(ctx), token)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.handles[token] = h
		r.mu.Unlock()

		r.logger.InfoContext(ctx, "Created bot instance", "instances", r.Len())
		return h, nil
	})
	if err != nil {
		return nil, fmt.Errorf("create bot instance: %w", err)
	}
	return v.(*telegram.Handle), nil
}

// Len returns the number of installed handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// Tokens returns the installed tokens in sorted order.
func (r *Registry) Tokens() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tokens := make([]string, 0, len(r.handles))
	for token := range r.handles {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}
