// Package session owns in-memory conversation state for one UI surface and
// drives the message exchange with the remote recommendation endpoint.
package session

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/advisorly/finassist/internal/identity"
	"github.com/advisorly/finassist/internal/model/advice"
	"github.com/advisorly/finassist/internal/model/chat"
)

// Recommender is the remote collaborator converting a free-text query into a
// structured recommendation. A nil payload with a nil error is a valid
// answer ("no recommendation available").
type Recommender interface {
	Recommend(ctx context.Context, query, token string) (*advice.Recommendation, error)
}

// Store holds every conversation, the active-conversation pointer, and the
// per-conversation in-flight flag. All state is process-local and owned by a
// single surface; it is not persisted.
type Store struct {
	mu       sync.Mutex
	order    []string
	convs    map[string]*chat.Conversation
	activeID string
	pending  map[string]bool
	draft    string

	recommender Recommender
	provider    identity.Provider
	now         func() time.Time
}

// NewStore wires the store to its two collaborators. The identity provider
// is consulted fresh on every send; tokens are never cached here.
func NewStore(recommender Recommender, provider identity.Provider) *Store {
	return &Store{
		convs:       make(map[string]*chat.Conversation),
		pending:     make(map[string]bool),
		recommender: recommender,
		provider:    provider,
		now:         time.Now,
	}
}

// StartConversation creates an empty conversation, appends it to the display
// order, and makes it active. Always succeeds.
func (s *Store) StartConversation() chat.Conversation {
	conv := &chat.Conversation{
		ID:        uuid.NewString(),
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.convs[conv.ID] = conv
	s.order = append(s.order, conv.ID)
	s.activeID = conv.ID
	s.mu.Unlock()

	return *conv
}

// Select makes the conversation with id active. An unknown id is a no-op
// that keeps the current selection; the return value reports whether the
// selection changed.
func (s *Store) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.convs[id]; !ok {
		return false
	}
	s.activeID = id
	return true
}

// Delete removes the conversation with id. Deleting the active conversation
// clears the active pointer; deleting an unknown id is a no-op. Any reply
// still in flight for id will be discarded when it resolves.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.convs[id]; !ok {
		return
	}

	delete(s.convs, id)
	delete(s.pending, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.activeID == id {
		s.activeID = ""
	}
}

// Send runs the two-phase exchange: the user's message is appended to the
// active conversation synchronously, then the query goes out to the
// recommendation endpoint and the reply (or the fixed fallback) is appended
// asynchronously to the conversation captured at send time.
//
// The call is rejected (no state change, ok false) when the trimmed text is
// empty, no conversation is active, or a reply is already pending for the
// active conversation. The returned channel closes when the exchange
// settles.
func (s *Store) Send(ctx context.Context, text string) (done <-chan struct{}, ok bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, false
	}

	s.mu.Lock()
	conv, exists := s.convs[s.activeID]
	if !exists || s.pending[s.activeID] {
		s.mu.Unlock()
		return nil, false
	}

	id := conv.ID
	conv.Messages = append(conv.Messages, chat.Message{
		Text:      trimmed,
		Sender:    chat.SenderUser,
		Timestamp: s.now(),
	})
	s.draft = ""
	s.pending[id] = true
	s.mu.Unlock()

	ch := make(chan struct{})
	go func() {
		defer close(ch)

		token, err := s.provider.Token(ctx)
		if err != nil {
			log.Printf("[session] token fetch failed, sending unauthenticated: %v", err)
			token = ""
		}

		rec, err := s.recommender.Recommend(ctx, trimmed, token)
		s.resolve(id, rec, err)
	}()

	return ch, true
}

// resolve applies phase two: append the bot reply to the conversation that
// originated the request, or discard it when that conversation is gone.
func (s *Store) resolve(id string, rec *advice.Recommendation, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.convs[id]
	if !ok {
		// Conversation was deleted mid-flight; pending was already
		// cleared with it.
		log.Printf("[session] discarding stale reply for conversation %s", id)
		return
	}
	delete(s.pending, id)

	text := advice.RenderReply(rec)
	if err != nil {
		log.Printf("[session] recommendation request failed for conversation %s: %v", id, err)
		text = advice.FallbackReply
	}

	conv.Messages = append(conv.Messages, chat.Message{
		Text:      text,
		Sender:    chat.SenderBot,
		Timestamp: s.now(),
	})
}

// Conversations returns every conversation in display order. Message slices
// are copied so callers cannot mutate store state.
func (s *Store) Conversations() []chat.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]chat.Conversation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, copyConversation(s.convs[id]))
	}
	return out
}

// Active returns a copy of the active conversation, if one is selected.
func (s *Store) Active() (chat.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.convs[s.activeID]
	if !ok {
		return chat.Conversation{}, false
	}
	return copyConversation(conv), true
}

// ActiveID returns the active conversation's id, if one is selected.
func (s *Store) ActiveID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.convs[s.activeID]; !ok {
		return "", false
	}
	return s.activeID, true
}

// Pending reports whether a reply is in flight for the conversation with id.
func (s *Store) Pending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[id]
}

// SetDraft stores the transient input buffer.
func (s *Store) SetDraft(text string) {
	s.mu.Lock()
	s.draft = text
	s.mu.Unlock()
}

// Draft returns the transient input buffer.
func (s *Store) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

func copyConversation(conv *chat.Conversation) chat.Conversation {
	out := *conv
	out.Messages = make([]chat.Message, len(conv.Messages))
	copy(out.Messages, conv.Messages)
	return out
}
