// ABOUTME: Tests for the LRU embedding cache
// ABOUTME: Verifies only cache misses reach the wrapped embedder
package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/harper/orpheo/internal/llm/llmtest"
)

func TestCachedEmbedder_OnlyMissesReachInner(t *testing.T) {
	inner := &llmtest.FakeEmbedder{}
	cached := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	if _, err := cached.Embed(ctx, []string{"alpha", "beta"}); err != nil {
		t.Fatalf("Embed() failed: %v", err)
	}
	vectors, err := cached.Embed(ctx, []string{"beta", "gamma", "alpha"})
	if err != nil {
		t.Fatalf("Embed() failed: %v", err)
	}

	embedded := inner.Embedded()
	if len(embedded) != 3 {
		t.Fatalf("inner embedded %v, want alpha, beta, gamma once each", embedded)
	}
	if embedded[2] != "gamma" {
		t.Errorf("second call should only embed gamma, got %v", embedded)
	}

	want := llmtest.Vector("alpha")
	for i := range want {
		if vectors[2][i] != want[i] {
			t.Fatal("cached vector for alpha returned at wrong position")
		}
	}

	hits, misses := cached.Stats()
	if hits != 2 || misses != 3 {
		t.Errorf("Stats() = %d hits, %d misses, want 2 and 3", hits, misses)
	}
}

func TestCachedEmbedder_PropagatesErrors(t *testing.T) {
	sentinel := errors.New("backend down")
	cached := NewCachedEmbedder(&llmtest.FakeEmbedder{Err: sentinel}, 0)

	if _, err := cached.Embed(context.Background(), []string{"x"}); !errors.Is(err, sentinel) {
		t.Errorf("expected backend error, got %v", err)
	}
}

func TestCachedEmbedder_ModelName(t *testing.T) {
	cached := NewCachedEmbedder(&llmtest.FakeEmbedder{Model: "m1"}, 1)
	if cached.ModelName() != "m1" {
		t.Errorf("ModelName() = %s, want m1", cached.ModelName())
	}
}

func TestComplete(t *testing.T) {
	model := llmtest.Echo()
	got, err := Complete(context.Background(), model, "sys", "hello")
	if err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}
	if got != "hello" {
		t.Errorf("Complete() = %q, want hello", got)
	}
	reqs := model.Requests()
	if len(reqs) != 1 || len(reqs[0]) != 2 {
		t.Errorf("expected one request with system+user, got %+v", reqs)
	}
}
