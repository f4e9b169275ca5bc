package provider

import (
	"context"
	"sync"
	"time"
)

// ThrottleClient keeps at least delay between the end of one call and the
// start of the next, whether or not the previous call succeeded. The first
// call is never delayed, so no wait follows the last file of a run.
type ThrottleClient struct {
	next  Client
	delay time.Duration

	mu    sync.Mutex
	last  time.Time
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func Throttle(next Client, delay time.Duration) *ThrottleClient {
	return &ThrottleClient{
		next:  next,
		delay: delay,
		now:   time.Now,
		sleep: sleepContext,
	}
}

func (t *ThrottleClient) Query(ctx context.Context, prompt string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() && t.delay > 0 {
		if wait := t.delay - t.now().Sub(t.last); wait > 0 {
			if err := t.sleep(ctx, wait); err != nil {
				return "", err
			}
		}
	}

	text, err := t.next.Query(ctx, prompt)
	t.last = t.now()
	return text, err
}
