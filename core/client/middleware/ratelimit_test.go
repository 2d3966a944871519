package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leofalp/stylegate/providers/ai"
)

// TestRateLimitMiddleware_AllowsBurst verifies that calls within the burst are
// not delayed.
func TestRateLimitMiddleware_AllowsBurst(t *testing.T) {
	calls := 0
	next := func(_ context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		calls++
		return &ai.ChatResponse{Content: "ok"}, nil
	}

	chain := NewRateLimitMiddleware(1, 3).Send(next)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := chain(context.Background(), ai.ChatRequest{}); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
	}

	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("burst calls should not wait, took %v", elapsed)
	}
}

// TestRateLimitMiddleware_ContextEndsWhileWaiting verifies that a request whose
// context ends before a token is available fails with ErrRateLimited and never
// reaches the provider.
func TestRateLimitMiddleware_ContextEndsWhileWaiting(t *testing.T) {
	calls := 0
	next := func(_ context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		calls++
		return &ai.ChatResponse{}, nil
	}

	chain := NewRateLimitMiddleware(0.1, 1).Send(next)

	if _, err := chain(context.Background(), ai.ChatRequest{}); err != nil {
		t.Fatalf("first call: unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := chain(ctx, ai.ChatRequest{})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected the provider to be called once, got %d", calls)
	}
}

// TestRateLimitMiddleware_Disabled verifies that a non-positive rate turns the
// middleware into a pass-through.
func TestRateLimitMiddleware_Disabled(t *testing.T) {
	calls := 0
	next := func(_ context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		calls++
		return &ai.ChatResponse{}, nil
	}

	chain := NewRateLimitMiddleware(0, 0).Send(next)
	for i := 0; i < 50; i++ {
		if _, err := chain(context.Background(), ai.ChatRequest{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls != 50 {
		t.Errorf("expected 50 calls, got %d", calls)
	}
}
