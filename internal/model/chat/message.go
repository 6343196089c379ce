package chat

import "time"

// Sender identifies who authored a message. Exactly two values exist.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Message is a single turn in a conversation. Immutable once appended;
// slice position, not Timestamp, is the authoritative order.
type Message struct {
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}
