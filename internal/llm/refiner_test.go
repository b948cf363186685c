package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/typeless-app/typeless-core/internal/config"
)

func TestBuildSystemPromptDefaultsBase(t *testing.T) {
	got := BuildSystemPrompt("", nil)
	if got != DefaultPrompt {
		t.Fatal("empty base should fall back to the default prompt")
	}
}

func TestBuildSystemPromptAppendsGlossary(t *testing.T) {
	got := BuildSystemPrompt("base prompt", []string{"NATS", "Kubernetes"})
	if !strings.HasPrefix(got, "base prompt") {
		t.Fatalf("base prompt must come first, got %q", got)
	}
	if !strings.Contains(got, "- NATS") || !strings.Contains(got, "- Kubernetes") {
		t.Fatalf("glossary terms missing: %q", got)
	}
}

func TestBuildSystemPromptNoGlossary(t *testing.T) {
	if got := BuildSystemPrompt("base", nil); got != "base" {
		t.Fatalf("expected base unchanged, got %q", got)
	}
}

func TestMockRefinerPreservesChunkWhitespace(t *testing.T) {
	ref := NewMockRefiner()
	out, err := ref.Refine(context.Background(), " world", "", "Hello")
	if err != nil {
		t.Fatalf("refine: %v", err)
	}
	if out != " world" {
		t.Fatalf("got %q, want %q: boundary whitespace must survive refinement", out, " world")
	}
}

func TestNewSelectsBackend(t *testing.T) {
	cfg := config.Default().LLM
	cfg.Mode = "mock"
	ref, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := ref.(*mockRefiner); !ok {
		t.Fatalf("expected mock refiner, got %T", ref)
	}

	cfg.Mode = "psychic"
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
