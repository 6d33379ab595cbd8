package events

import "sync"

type subscriber struct {
	ch     chan Event
	mu     sync.Mutex
	closed bool
}

// trySend delivers ev without blocking. It reports false when the subscriber
// is closed or its buffer is full.
func (s *subscriber) trySend(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}

	select {
	case s.ch <- ev:
		return true
	default:
		return false
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
