package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// UpdateListener consumes the per-user live-update channel. Only the most
// recent update is retained; there is no history buffer.
type UpdateListener struct {
	conn *websocket.Conn
	done chan struct{}

	mu     sync.Mutex
	latest string
}

// DialUpdates connects to the push channel for userID. baseURL uses the ws
// or wss scheme; http(s) URLs are rewritten for convenience.
func DialUpdates(ctx context.Context, baseURL, userID string) (*UpdateListener, error) {
	if userID == "" {
		return nil, fmt.Errorf("dial updates: user id is required")
	}

	base := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, base+"/ws/"+userID, nil)
	if err != nil {
		return nil, fmt.Errorf("dial updates: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	l := &UpdateListener{conn: conn, done: make(chan struct{})}
	go l.listen()
	return l, nil
}

func (l *UpdateListener) listen() {
	defer close(l.done)

	for {
		_, data, err := l.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[updates] read loop ended: %v", err)
			}
			return
		}

		var frame struct {
			Update string `json:"update"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Printf("[updates] skipping malformed frame: %v", err)
			continue
		}

		l.mu.Lock()
		l.latest = frame.Update
		l.mu.Unlock()
	}
}

// Latest returns the most recent update received, empty before the first.
func (l *UpdateListener) Latest() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.latest
}

// Done closes when the read loop has exited.
func (l *UpdateListener) Done() <-chan struct{} {
	return l.done
}

// Close tears down the connection and waits for the read loop to exit.
// Mandatory on teardown; a leaked listener keeps a goroutine and socket
// alive.
func (l *UpdateListener) Close() error {
	err := l.conn.Close()
	<-l.done
	return err
}
