package queue

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// Replies correlates responses arriving on a response subject with the
// callers waiting for them. The server registers a request id before
// publishing, consumes the response subject in the background, and each
// incoming message is routed to its waiter by request_id. Responses with
// no waiter (caller timed out or another instance owns the request) are
// acked and discarded.
type Replies struct {
	mu      sync.Mutex
	waiters map[string]chan []byte
}

func NewReplies() *Replies {
	return &Replies{waiters: make(map[string]chan []byte)}
}

// Register creates a waiter for requestID. The returned channel receives
// the raw response body exactly once. Callers must cancel with the
// returned func when they stop waiting.
func (r *Replies) Register(requestID string) (<-chan []byte, func()) {
	ch := make(chan []byte, 1)
	r.mu.Lock()
	r.waiters[requestID] = ch
	r.mu.Unlock()
	cancel := func() {
		r.mu.Lock()
		delete(r.waiters, requestID)
		r.mu.Unlock()
	}
	return ch, cancel
}

// Handler returns a queue Handler that dispatches response bodies to their
// registered waiters. Bodies that fail to parse or carry an unknown
// request id are acked so they do not clog the subject.
func (r *Replies) Handler() Handler {
	return func(ctx context.Context, body []byte) Decision {
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil || env.RequestID == "" {
			log.Warn().Err(err).Msg("queue: unparseable response dropped")
			return Ack
		}
		r.mu.Lock()
		ch, ok := r.waiters[env.RequestID]
		if ok {
			delete(r.waiters, env.RequestID)
		}
		r.mu.Unlock()
		if !ok {
			return Ack
		}
		ch <- body
		return Ack
	}
}
