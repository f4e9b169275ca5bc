package provider

import (
	"context"
	"sync"
)

type reply struct {
	text string
	err  error
}

// scriptedClient returns queued replies in order and repeats the last one.
type scriptedClient struct {
	mu      sync.Mutex
	replies []reply
	calls   int
}

func script(replies ...reply) *scriptedClient {
	return &scriptedClient{replies: replies}
}

func (s *scriptedClient) Query(context.Context, string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := min(s.calls, len(s.replies)-1)
	s.calls++
	return s.replies[idx].text, s.replies[idx].err
}

func (s *scriptedClient) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
