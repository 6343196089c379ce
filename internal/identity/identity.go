// Package identity is the boundary to the external identity provider. The
// rest of the system only ever sees this interface; the provider's own
// sign-in protocol is out of scope.
package identity

import "context"

// State is the provider's view of the current user.
type State int

const (
	// StateUnknown holds until the provider delivers its first resolution.
	StateUnknown State = iota
	StateAuthenticated
	StateUnauthenticated
)

// String implements fmt.Stringer for log output.
func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Provider supplies the current bearer token on demand and pushes state
// transitions to subscribers.
//
// Token returns the empty string (and no error) when nobody is signed in.
// Subscribe registers fn for every subsequent transition and returns a
// cancel func; callers must invoke it on teardown, and it must be safe to
// invoke more than once.
type Provider interface {
	Token(ctx context.Context) (string, error)
	Subscribe(fn func(State)) (cancel func())
}
