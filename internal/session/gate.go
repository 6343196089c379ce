package session

import (
	"log"
	"sync"

	"github.com/advisorly/finassist/internal/identity"
)

// Gate watches the identity provider and fires a one-time redirect to the
// sign-in surface when the session resolves unauthenticated. It starts in
// StateUnknown and tracks the provider's last resolution thereafter.
type Gate struct {
	provider identity.Provider
	redirect func()

	mu     sync.Mutex
	state  identity.State
	fired  bool
	cancel func()
}

// NewGate wires the gate to its provider. redirect runs at most once, on the
// first unauthenticated resolution after Start.
func NewGate(provider identity.Provider, redirect func()) *Gate {
	return &Gate{provider: provider, redirect: redirect}
}

// Start subscribes to provider state transitions. Callers must pair every
// Start with Stop; a leaked subscription keeps mutating gate state after the
// owning scope is gone.
func (g *Gate) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		return
	}
	g.cancel = g.provider.Subscribe(g.observe)
}

// Stop releases the subscription. Safe to call more than once.
func (g *Gate) Stop() {
	g.mu.Lock()
	cancel := g.cancel
	g.cancel = nil
	g.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// State returns the last resolution seen, StateUnknown before the first.
func (g *Gate) State() identity.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Gate) observe(state identity.State) {
	g.mu.Lock()
	g.state = state
	fire := state == identity.StateUnauthenticated && !g.fired
	if fire {
		g.fired = true
	}
	g.mu.Unlock()

	if fire {
		log.Printf("[session] unauthenticated, redirecting to sign-in")
		g.redirect()
	}
}
