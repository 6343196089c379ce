package chat

import "time"

// Conversation is one chat thread. Messages are append-only; the thread is
// only ever deleted as a whole.
type Conversation struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
}

// Title returns a short sidebar label derived from the first message.
func (c Conversation) Title() string {
	if len(c.Messages) == 0 {
		return "New Chat"
	}
	runes := []rune(c.Messages[0].Text)
	if len(runes) > 20 {
		return string(runes[:20])
	}
	return string(runes)
}
