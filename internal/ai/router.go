package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrNoProvider is returned when every registered provider failed, or none
// is registered.
var ErrNoProvider = errors.New("all AI providers failed")

// Router tries registered providers in registration order until one succeeds.
type Router struct {
	providers map[string]Provider
	fallback  []string // ordered fallback chain
	mu        sync.RWMutex
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the end of the fallback chain.
func (r *Router) Register(name string, provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[name]; !exists {
		r.fallback = append(r.fallback, name)
	}
	r.providers[name] = provider
}

// Names returns provider names in fallback order.
func (r *Router) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.fallback...)
}

// Complete routes a request to the first provider that answers.
func (r *Router) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	var lastErr error
	for _, name := range r.Names() {
		provider := r.provider(name)

		resp, err := provider.Complete(ctx, req)
		if err != nil {
			slog.Warn("AI provider failed, trying next",
				"provider", name,
				"task", req.Task.String(),
				"error", err,
			)
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		resp.Provider = name
		slog.Debug("AI request completed",
			"provider", name,
			"task", req.Task.String(),
			"model", resp.Model,
			"input_tokens", resp.InputTokens,
			"output_tokens", resp.OutputTokens,
		)
		return resp, nil
	}

	if lastErr != nil {
		return CompletionResponse{}, fmt.Errorf("%w: %w", ErrNoProvider, lastErr)
	}
	return CompletionResponse{}, ErrNoProvider
}

// StreamComplete streams from the first provider whose stream starts without
// an error. A provider that fails on its first chunk is skipped; failures
// after content has been forwarded are passed through to the caller.
func (r *Router) StreamComplete(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	names := r.Names()
	if len(names) == 0 {
		return nil, ErrNoProvider
	}

	out := make(chan StreamChunk, 16)
	go func() {
		defer close(out)

		var lastErr error
		for _, name := range names {
			ch, err := r.provider(name).StreamComplete(ctx, req)
			if err != nil {
				slog.Warn("AI provider stream failed, trying next", "provider", name, "error", err)
				lastErr = err
				continue
			}

			first, ok := <-ch
			if !ok || first.Error != nil {
				if first.Error != nil {
					lastErr = first.Error
				}
				slog.Warn("AI provider stream failed, trying next", "provider", name, "error", lastErr)
				drain(ch)
				continue
			}

			if !emit(ctx, out, stamp(first, name)) {
				drain(ch)
				return
			}
			for chunk := range ch {
				if !emit(ctx, out, stamp(chunk, name)) {
					drain(ch)
					return
				}
			}
			return
		}

		err := ErrNoProvider
		if lastErr != nil {
			err = fmt.Errorf("%w: %w", ErrNoProvider, lastErr)
		}
		emit(ctx, out, StreamChunk{Error: err})
	}()
	return out, nil
}

// HasProvider returns true if at least one provider is registered.
func (r *Router) HasProvider() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers) > 0
}

// HealthCheck succeeds when at least one provider is healthy.
func (r *Router) HealthCheck(ctx context.Context) error {
	for _, name := range r.Names() {
		if err := r.provider(name).HealthCheck(ctx); err == nil {
			return nil
		}
	}
	return ErrNoProvider
}

func (r *Router) provider(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

// stamp records provider on the final chunk.
func stamp(c StreamChunk, provider string) StreamChunk {
	if c.Done {
		c.Provider = provider
	}
	return c
}

func drain(ch <-chan StreamChunk) {
	for range ch {
	}
}
