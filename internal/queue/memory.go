package queue

import (
	"context"
	"sync"
)

// Memory is an in-process Publisher and Consumer backed by channels. It
// keeps the same delivery contract as the JetStream client (one message in
// flight per subject, Retry redelivers, Drop discards) without an external
// broker, which makes it useful in tests and single-binary setups.
type Memory struct {
	mu     sync.Mutex
	subs   map[string]chan []byte
	buffer int
}

// NewMemory returns an in-process queue holding up to buffer pending
// messages per subject.
func NewMemory(buffer int) *Memory {
	if buffer <= 0 {
		buffer = 256
	}
	return &Memory{subs: make(map[string]chan []byte), buffer: buffer}
}

func (m *Memory) channel(subject string) chan []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.subs[subject]
	if !ok {
		ch = make(chan []byte, m.buffer)
		m.subs[subject] = ch
	}
	return ch
}

// Publish enqueues body on subject. It blocks when the subject buffer is
// full until a consumer catches up or ctx is cancelled.
func (m *Memory) Publish(ctx context.Context, subject string, body []byte) error {
	select {
	case m.channel(subject) <- body:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume delivers messages on subject to h one at a time until ctx is
// cancelled. Retry puts the message back at the end of the queue; durable
// is accepted for interface parity and ignored.
func (m *Memory) Consume(ctx context.Context, subject, durable string, h Handler) error {
	_ = durable
	ch := m.channel(subject)
	for {
		select {
		case body := <-ch:
			if h(ctx, body) == Retry {
				select {
				case ch <- body:
				case <-ctx.Done():
					return nil
				}
			}
		case <-ctx.Done():
			return nil
		}
	}
}
