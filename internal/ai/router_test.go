package ai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/courseforge/site/internal/ai"
)

func TestRouter_SingleProvider(t *testing.T) {
	router := ai.NewRouter()
	router.Register("openai", ai.NewMockProvider("Hello!"))

	resp, err := router.Complete(context.Background(), ai.CompletionRequest{
		Messages: []ai.Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "Hello!" {
		t.Errorf("Content = %q, want %q", resp.Content, "Hello!")
	}
	if resp.Provider != "openai" {
		t.Errorf("Provider = %q, want openai", resp.Provider)
	}
}

func TestRouter_Fallback(t *testing.T) {
	router := ai.NewRouter()
	router.Register("anthropic", &ai.MockProvider{Err: errors.New("rate limited")})
	router.Register("openai", ai.NewMockProvider("Fallback response"))

	resp, err := router.Complete(context.Background(), ai.CompletionRequest{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "Fallback response" {
		t.Errorf("Content = %q, want %q", resp.Content, "Fallback response")
	}
	if resp.Provider != "openai" {
		t.Errorf("Provider = %q, want openai", resp.Provider)
	}
}

func TestRouter_AllProvidersFail(t *testing.T) {
	router := ai.NewRouter()
	router.Register("anthropic", &ai.MockProvider{Err: errors.New("fail 1")})
	router.Register("openai", &ai.MockProvider{Err: errors.New("fail 2")})

	_, err := router.Complete(context.Background(), ai.CompletionRequest{})
	if !errors.Is(err, ai.ErrNoProvider) {
		t.Fatalf("Complete() error = %v, want ErrNoProvider", err)
	}
}

func TestRouter_NoProviders(t *testing.T) {
	router := ai.NewRouter()

	if _, err := router.Complete(context.Background(), ai.CompletionRequest{}); !errors.Is(err, ai.ErrNoProvider) {
		t.Fatalf("Complete() error = %v, want ErrNoProvider", err)
	}
	if _, err := router.StreamComplete(context.Background(), ai.CompletionRequest{}); !errors.Is(err, ai.ErrNoProvider) {
		t.Fatalf("StreamComplete() error = %v, want ErrNoProvider", err)
	}
}

func TestRouter_RegisterSameNameReplaces(t *testing.T) {
	router := ai.NewRouter()
	router.Register("openai", ai.NewMockProvider("old"))
	router.Register("openai", ai.NewMockProvider("new"))

	if names := router.Names(); len(names) != 1 {
		t.Fatalf("Names() = %v, want one entry", names)
	}
	resp, err := router.Complete(context.Background(), ai.CompletionRequest{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "new" {
		t.Errorf("Content = %q, want new", resp.Content)
	}
}

func TestRouter_StreamFallback(t *testing.T) {
	router := ai.NewRouter()
	router.Register("broken", &ai.MockProvider{Err: errors.New("down")})
	router.Register("healthy", &ai.MockProvider{Chunks: []string{"a", "b"}})

	ch, err := router.StreamComplete(context.Background(), ai.CompletionRequest{})
	if err != nil {
		t.Fatalf("StreamComplete() error = %v", err)
	}

	var text, provider string
	for chunk := range ch {
		if chunk.Error != nil {
			t.Fatalf("unexpected chunk error: %v", chunk.Error)
		}
		text += chunk.Content
		if chunk.Done {
			provider = chunk.Provider
		} else if chunk.Provider != "" {
			t.Errorf("content chunk carries provider %q", chunk.Provider)
		}
	}
	if text != "ab" {
		t.Errorf("streamed text = %q, want ab", text)
	}
	if provider != "healthy" {
		t.Errorf("final chunk provider = %q, want healthy", provider)
	}
}

func TestRouter_StreamAllFail(t *testing.T) {
	router := ai.NewRouter()
	router.Register("broken", &ai.MockProvider{Err: errors.New("down")})

	ch, err := router.StreamComplete(context.Background(), ai.CompletionRequest{})
	if err != nil {
		t.Fatalf("StreamComplete() error = %v", err)
	}

	var last ai.StreamChunk
	for chunk := range ch {
		last = chunk
	}
	if !errors.Is(last.Error, ai.ErrNoProvider) {
		t.Errorf("final chunk error = %v, want ErrNoProvider", last.Error)
	}
}

func TestRouter_HasProvider(t *testing.T) {
	router := ai.NewRouter()
	if router.HasProvider() {
		t.Error("HasProvider() should be false with no providers")
	}

	router.Register("mock", ai.NewMockProvider("ok"))
	if !router.HasProvider() {
		t.Error("HasProvider() should be true after Register")
	}
}

func TestRouter_HealthCheck(t *testing.T) {
	router := ai.NewRouter()
	router.Register("broken", &ai.MockProvider{Err: errors.New("down")})
	if err := router.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() should fail when every provider is down")
	}

	router.Register("healthy", ai.NewMockProvider("ok"))
	if err := router.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}
