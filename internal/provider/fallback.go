package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// SwitchEvent reports a permanent move to the next provider in the chain.
type SwitchEvent struct {
	From string
	To   string
	Err  error
}

// FallbackClient sends queries to the active provider and moves down the
// chain for good when that provider fails fatally.
type FallbackClient struct {
	clients  []Named
	onSwitch func(SwitchEvent)

	mu     sync.Mutex
	active int
}

type FallbackOption func(*FallbackClient)

func OnSwitch(fn func(SwitchEvent)) FallbackOption {
	return func(f *FallbackClient) {
		f.onSwitch = fn
	}
}

func Fallback(clients []Named, opts ...FallbackOption) *FallbackClient {
	f := &FallbackClient{clients: clients}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Active returns the name of the provider currently in use.
func (f *FallbackClient) Active() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.clients) == 0 {
		return ""
	}
	return f.clients[f.active].Name
}

func (f *FallbackClient) Query(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.clients) == 0 {
		return "", errors.New("no model providers configured")
	}

	trace := traceFrom(ctx)
	for {
		current := f.clients[f.active]
		if trace != nil {
			trace.Provider = current.Name
		}
		text, err := current.Client.Query(ctx, prompt)
		if err == nil {
			return text, nil
		}
		if !Fatal(err) || f.active == len(f.clients)-1 {
			return "", err
		}

		f.active++
		next := f.clients[f.active]
		if f.onSwitch != nil {
			f.onSwitch(SwitchEvent{From: current.Name, To: next.Name, Err: err})
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("switching to %s: %w", next.Name, ctxErr)
		}
	}
}
