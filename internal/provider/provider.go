package provider

import (
	"context"
	"fmt"
	"slices"

	"github.com/jaa/songmeta/internal/config"
)

// Client sends one prompt to a model and returns its raw text reply.
// Implementations never return "" with a nil error.
type Client interface {
	Query(ctx context.Context, prompt string) (string, error)
}

// Factory builds a Client from one provider block of the config.
type Factory func(cfg config.Provider) (Client, error)

// Registry maps provider kinds to their factories.
type Registry map[config.ProviderKind]Factory

func (r Registry) New(cfg config.Provider) (Client, error) {
	factory, ok := r[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown model provider: %s (known: %v)", cfg.Kind, r.Kinds())
	}
	client, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", cfg.Kind, err)
	}
	return client, nil
}

func (r Registry) Kinds() []config.ProviderKind {
	kinds := make([]config.ProviderKind, 0, len(r))
	for kind := range r {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	return kinds
}

// Named pairs a client with the label used in logs and events.
type Named struct {
	Name   string
	Client Client
}

// Trace collects details about one logical query across the decorators.
// Attach it with WithTrace before calling Query.
type Trace struct {
	Attempts int
	Provider string
}

type traceKey struct{}

func WithTrace(ctx context.Context, trace *Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, trace)
}

func traceFrom(ctx context.Context) *Trace {
	trace, _ := ctx.Value(traceKey{}).(*Trace)
	return trace
}
