package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/advisorly/finassist/internal/identity"
	"github.com/advisorly/finassist/internal/model/advice"
	"github.com/advisorly/finassist/internal/model/chat"
	"github.com/advisorly/finassist/internal/session"
)

// stubRecommender lets tests hold a request in flight and script its result.
type stubRecommender struct {
	mu     sync.Mutex
	calls  int
	tokens []string
	gate   chan struct{}
	rec    *advice.Recommendation
	err    error
}

func (r *stubRecommender) Recommend(_ context.Context, _ string, token string) (*advice.Recommendation, error) {
	r.mu.Lock()
	r.calls++
	r.tokens = append(r.tokens, token)
	gate := r.gate
	r.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return r.rec, r.err
}

func (r *stubRecommender) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func newStore(rec *stubRecommender) (*session.Store, *identity.MemoryProvider) {
	provider := identity.NewMemoryProvider()
	return session.NewStore(rec, provider), provider
}

func awaitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("send did not settle")
	}
}

func TestStartConversationIsEmptyAndActive(t *testing.T) {
	store, _ := newStore(&stubRecommender{})

	conv := store.StartConversation()
	if len(conv.Messages) != 0 {
		t.Fatalf("expected empty message list, got %d", len(conv.Messages))
	}

	id, ok := store.ActiveID()
	if !ok || id != conv.ID {
		t.Fatalf("expected new conversation active, got %q ok=%v", id, ok)
	}
}

func TestSelectUnknownIDKeepsSelection(t *testing.T) {
	store, _ := newStore(&stubRecommender{})
	conv := store.StartConversation()

	if store.Select("no-such-id") {
		t.Fatal("expected Select to reject unknown id")
	}

	id, ok := store.ActiveID()
	if !ok || id != conv.ID {
		t.Fatalf("selection should be unchanged, got %q ok=%v", id, ok)
	}
}

func TestDeleteActiveClearsPointer(t *testing.T) {
	store, _ := newStore(&stubRecommender{})
	conv := store.StartConversation()

	store.Delete(conv.ID)

	if _, ok := store.ActiveID(); ok {
		t.Fatal("active pointer should be cleared with its conversation")
	}
	if got := len(store.Conversations()); got != 0 {
		t.Fatalf("expected no conversations, got %d", got)
	}
}

func TestDeleteInactiveKeepsSelection(t *testing.T) {
	store, _ := newStore(&stubRecommender{})
	a := store.StartConversation()
	b := store.StartConversation()
	store.Select(a.ID)

	store.Delete(b.ID)
	store.Delete("no-such-id")

	id, ok := store.ActiveID()
	if !ok || id != a.ID {
		t.Fatalf("expected %s still active, got %q ok=%v", a.ID, id, ok)
	}
}

// The active pointer must reference an existing conversation after any
// sequence of start/delete calls.
func TestActivePointerInvariant(t *testing.T) {
	store, _ := newStore(&stubRecommender{})

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, store.StartConversation().ID)
	}
	store.Select(ids[2])
	store.Delete(ids[2])
	store.Delete(ids[0])
	store.Select(ids[4])
	store.Delete(ids[4])

	if id, ok := store.ActiveID(); ok {
		found := false
		for _, conv := range store.Conversations() {
			if conv.ID == id {
				found = true
			}
		}
		if !found {
			t.Fatalf("active id %s not present in conversations", id)
		}
	}
	if got := len(store.Conversations()); got != 2 {
		t.Fatalf("expected 2 conversations left, got %d", got)
	}
}

func TestSendRejectsBlankText(t *testing.T) {
	rec := &stubRecommender{}
	store, _ := newStore(rec)
	store.StartConversation()

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, ok := store.Send(context.Background(), text); ok {
			t.Fatalf("Send(%q) should be rejected", text)
		}
	}

	conv, _ := store.Active()
	if len(conv.Messages) != 0 {
		t.Fatalf("blank sends must not append, got %d messages", len(conv.Messages))
	}
	if rec.callCount() != 0 {
		t.Fatalf("blank sends must not issue requests, got %d", rec.callCount())
	}
}

func TestSendRejectsWithoutActiveConversation(t *testing.T) {
	rec := &stubRecommender{}
	store, _ := newStore(rec)

	if _, ok := store.Send(context.Background(), "hello"); ok {
		t.Fatal("Send without an active conversation should be rejected")
	}
	if rec.callCount() != 0 {
		t.Fatal("no request should be issued")
	}
}

func TestSendRejectsWhilePending(t *testing.T) {
	gate := make(chan struct{})
	rec := &stubRecommender{gate: gate}
	store, _ := newStore(rec)
	conv := store.StartConversation()

	done, ok := store.Send(context.Background(), "first")
	if !ok {
		t.Fatal("first send should be accepted")
	}
	if !store.Pending(conv.ID) {
		t.Fatal("pending flag should be set while in flight")
	}

	if _, ok := store.Send(context.Background(), "second"); ok {
		t.Fatal("second send while pending should be rejected")
	}

	close(gate)
	awaitDone(t, done)

	got, _ := store.Active()
	if len(got.Messages) != 2 {
		t.Fatalf("expected user+bot messages only, got %d", len(got.Messages))
	}
	if rec.callCount() != 1 {
		t.Fatalf("expected exactly one request, got %d", rec.callCount())
	}
	if store.Pending(conv.ID) {
		t.Fatal("pending flag should clear after resolution")
	}
}

func TestSendAppendsUserMessageSynchronously(t *testing.T) {
	gate := make(chan struct{})
	rec := &stubRecommender{gate: gate}
	store, _ := newStore(rec)
	store.StartConversation()
	store.SetDraft("  hi there  ")

	done, ok := store.Send(context.Background(), "  hi there  ")
	if !ok {
		t.Fatal("send should be accepted")
	}

	conv, _ := store.Active()
	if len(conv.Messages) != 1 {
		t.Fatalf("user message must be visible before the reply, got %d", len(conv.Messages))
	}
	if conv.Messages[0].Sender != chat.SenderUser || conv.Messages[0].Text != "hi there" {
		t.Fatalf("unexpected user message: %+v", conv.Messages[0])
	}
	if store.Draft() != "" {
		t.Fatal("draft should be cleared by an accepted send")
	}

	close(gate)
	awaitDone(t, done)
}

func TestSendRendersRecommendation(t *testing.T) {
	rec := &stubRecommender{rec: &advice.Recommendation{
		Stability: []string{"AAPL"},
		RiskLevel: "low",
	}}
	store, provider := newStore(rec)
	provider.SetToken("tok-1")
	store.StartConversation()

	done, _ := store.Send(context.Background(), "where to invest?")
	awaitDone(t, done)

	conv, _ := store.Active()
	if len(conv.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(conv.Messages))
	}
	bot := conv.Messages[1]
	if bot.Sender != chat.SenderBot {
		t.Fatalf("expected bot sender, got %q", bot.Sender)
	}
	want := "Here's what I found:\n💼 Stability-focused investments: AAPL\n📊 Risk Level: low"
	if bot.Text != want {
		t.Fatalf("unexpected reply:\ngot  %q\nwant %q", bot.Text, want)
	}
}

func TestSendFetchesTokenPerCall(t *testing.T) {
	rec := &stubRecommender{}
	store, provider := newStore(rec)
	store.StartConversation()

	provider.SetToken("tok-1")
	done, _ := store.Send(context.Background(), "one")
	awaitDone(t, done)

	provider.SetToken("tok-2")
	done, _ = store.Send(context.Background(), "two")
	awaitDone(t, done)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.tokens) != 2 || rec.tokens[0] != "tok-1" || rec.tokens[1] != "tok-2" {
		t.Fatalf("tokens must be fetched fresh at send time, got %v", rec.tokens)
	}
}

func TestSendFailureAppendsFallback(t *testing.T) {
	rec := &stubRecommender{err: context.DeadlineExceeded}
	store, _ := newStore(rec)
	conv := store.StartConversation()

	done, _ := store.Send(context.Background(), "hello")
	awaitDone(t, done)

	got, _ := store.Active()
	if len(got.Messages) != 2 {
		t.Fatalf("expected user+fallback, got %d messages", len(got.Messages))
	}
	if got.Messages[1].Text != advice.FallbackReply {
		t.Fatalf("expected fallback reply, got %q", got.Messages[1].Text)
	}
	if store.Pending(conv.ID) {
		t.Fatal("pending must clear on failure")
	}
}

func TestSendNilRecommendationRendersFixedString(t *testing.T) {
	rec := &stubRecommender{}
	store, _ := newStore(rec)
	store.StartConversation()

	done, _ := store.Send(context.Background(), "hello")
	awaitDone(t, done)

	got, _ := store.Active()
	if got.Messages[1].Text != advice.NoRecommendationReply {
		t.Fatalf("expected %q, got %q", advice.NoRecommendationReply, got.Messages[1].Text)
	}
}

// Switching conversations while a reply is outstanding must not reroute it:
// the reply lands in the conversation that sent the query.
func TestReplyLandsInOriginatingConversation(t *testing.T) {
	gate := make(chan struct{})
	rec := &stubRecommender{gate: gate, rec: &advice.Recommendation{RiskLevel: "low"}}
	store, _ := newStore(rec)

	a := store.StartConversation()
	done, ok := store.Send(context.Background(), "hi")
	if !ok {
		t.Fatal("send should be accepted")
	}

	b := store.StartConversation()

	close(gate)
	awaitDone(t, done)

	for _, conv := range store.Conversations() {
		switch conv.ID {
		case a.ID:
			if len(conv.Messages) != 2 {
				t.Fatalf("conversation A should hold user+bot, got %d", len(conv.Messages))
			}
			if conv.Messages[1].Sender != chat.SenderBot {
				t.Fatalf("expected bot reply in A, got %+v", conv.Messages[1])
			}
		case b.ID:
			if len(conv.Messages) != 0 {
				t.Fatalf("conversation B must stay empty, got %d", len(conv.Messages))
			}
		}
	}
	if store.Pending(a.ID) {
		t.Fatal("pending must clear for A")
	}
}

// Deleting the conversation mid-flight discards the reply entirely.
func TestStaleReplyIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	rec := &stubRecommender{gate: gate, rec: &advice.Recommendation{RiskLevel: "low"}}
	store, _ := newStore(rec)

	a := store.StartConversation()
	done, _ := store.Send(context.Background(), "hi")
	store.Delete(a.ID)

	close(gate)
	awaitDone(t, done)

	if got := len(store.Conversations()); got != 0 {
		t.Fatalf("expected no conversations, got %d", got)
	}
	if store.Pending(a.ID) {
		t.Fatal("pending must not survive deletion")
	}

	// A fresh conversation must not inherit the orphaned reply.
	b := store.StartConversation()
	conv, _ := store.Active()
	if conv.ID != b.ID || len(conv.Messages) != 0 {
		t.Fatalf("new conversation polluted by stale reply: %+v", conv.Messages)
	}
}

func TestConversationsReturnsCopies(t *testing.T) {
	rec := &stubRecommender{}
	store, _ := newStore(rec)
	store.StartConversation()

	done, _ := store.Send(context.Background(), "hello")
	awaitDone(t, done)

	convs := store.Conversations()
	convs[0].Messages[0].Text = "mutated"

	fresh, _ := store.Active()
	if fresh.Messages[0].Text != "hello" {
		t.Fatal("store state must not be reachable through returned copies")
	}
}
