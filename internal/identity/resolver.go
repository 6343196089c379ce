package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownToken is returned when a bearer token has no known user.
var ErrUnknownToken = errors.New("unknown token")

// StaticResolver maps bearer tokens to user ids from a fixed table. It
// stands in for the identity provider's verification endpoint in
// development and tests.
type StaticResolver struct {
	users map[string]string
}

// NewStaticResolver builds a resolver over a token -> user id table.
func NewStaticResolver(users map[string]string) *StaticResolver {
	copied := make(map[string]string, len(users))
	for token, userID := range users {
		copied[token] = userID
	}
	return &StaticResolver{users: copied}
}

// Resolve returns the user id for token.
func (r *StaticResolver) Resolve(_ context.Context, token string) (string, error) {
	userID, ok := r.users[token]
	if !ok {
		return "", ErrUnknownToken
	}
	return userID, nil
}

// ParseTokenPairs parses "token:user,token:user" lists, the format of the
// AUTH_DEV_TOKENS variable.
func ParseTokenPairs(raw string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		token, userID, ok := strings.Cut(pair, ":")
		token = strings.TrimSpace(token)
		userID = strings.TrimSpace(userID)
		if !ok || token == "" || userID == "" {
			return nil, fmt.Errorf("invalid token pair %q", pair)
		}
		out[token] = userID
	}
	return out, nil
}
