package agents

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"vibecoder/internal/domain"
)

func TestGeminiClientRateLimitDistinct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewGeminiClient(GeminiOptions{APIKey: "k", BaseURL: srv.URL})
	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("429 must map to ErrRateLimited, got %v", err)
	}
}

func TestGeminiClientGenericFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewGeminiClient(GeminiOptions{APIKey: "k", BaseURL: srv.URL})
	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if errors.Is(err, domain.ErrRateLimited) {
		t.Fatal("non-429 failures must not be conflated with rate limiting")
	}
	if !errors.Is(err, domain.ErrAgentUnavailable) {
		t.Fatalf("expected ErrAgentUnavailable, got %v", err)
	}
}

func TestGeminiClientExtractsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"hello"}]}}]}`))
	}))
	defer srv.Close()

	client := NewGeminiClient(GeminiOptions{APIKey: "k", BaseURL: srv.URL})
	got, err := client.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello" {
		t.Fatalf("expected %q, got %q", "hello", got)
	}
}

func TestOpenAIClientRateLimitDistinct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewOpenAIClient(OpenAIOptions{APIKey: "k", BaseURL: srv.URL})
	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("429 must map to ErrRateLimited, got %v", err)
	}
}

func TestStaticClientProducesValidArtifacts(t *testing.T) {
	client := NewStaticClient()
	plan, err := client.Complete(context.Background(), CompletionRequest{Prompt: "p", JSONResponse: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, perr := parsePlan(plan); perr != nil {
		t.Fatalf("static plan must parse: %v", perr)
	}
}
