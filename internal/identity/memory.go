package identity

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryProvider implements Provider with in-process state, suitable for the
// CLI and tests. SetToken/SetState drive subscriber notifications.
type MemoryProvider struct {
	mu    sync.Mutex
	token string
	state State
	subs  map[string]func(State)
}

// NewMemoryProvider returns a provider in StateUnknown with no token.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{subs: make(map[string]func(State))}
}

// Token returns the configured bearer token, empty when signed out.
func (p *MemoryProvider) Token(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token, nil
}

// SetToken stores the token and resolves the auth state accordingly.
func (p *MemoryProvider) SetToken(token string) {
	if token == "" {
		p.SetState(StateUnauthenticated)
		return
	}
	p.mu.Lock()
	p.token = token
	p.mu.Unlock()
	p.SetState(StateAuthenticated)
}

// SetState transitions the provider and notifies every subscriber. Callbacks
// run outside the lock so a subscriber may unsubscribe from within its own
// notification.
func (p *MemoryProvider) SetState(state State) {
	p.mu.Lock()
	p.state = state
	if state == StateUnauthenticated {
		p.token = ""
	}
	fns := make([]func(State), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

// State reports the current resolution.
func (p *MemoryProvider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Subscribe registers fn for future transitions. The returned cancel func is
// idempotent.
func (p *MemoryProvider) Subscribe(fn func(State)) (cancel func()) {
	id := uuid.NewString()

	p.mu.Lock()
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}
