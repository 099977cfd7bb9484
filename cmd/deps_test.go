package cmd

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/job-tailor/internal/generation"
)

func TestNewCacheBackends(t *testing.T) {
	ctx := context.Background()

	c, cleanup, err := newCache(ctx, &Config{DataDir: t.TempDir()}, zap.NewNop())
	if err != nil {
		t.Fatalf("file cache: %v", err)
	}
	defer cleanup()
	if c == nil {
		t.Fatalf("expected a cache")
	}

	tests := []struct {
		name string
		cfg  *CacheConfig
	}{
		{name: "redis without url", cfg: &CacheConfig{Backend: "redis"}},
		{name: "unknown backend", cfg: &CacheConfig{Backend: "memcached"}},
	}

	for _, tt := range tests {
		if _, _, err := newCache(ctx, &Config{Cache: tt.cfg}, zap.NewNop()); err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
	}
}

func TestNewAIProviderErrors(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	ctx := context.Background()

	if _, err := newAIProvider(ctx, nil, zap.NewNop()); err == nil {
		t.Fatalf("expected error for missing ai section")
	}
	if _, err := newAIProvider(ctx, &AIConfig{Provider: "openai"}, zap.NewNop()); err == nil {
		t.Fatalf("expected error for unsupported provider")
	}
	if _, err := newAIProvider(ctx, &AIConfig{Provider: "anthropic"}, zap.NewNop()); err == nil {
		t.Fatalf("expected error for missing anthropic key")
	}

	p, err := newAIProvider(ctx, &AIConfig{
		Provider:  "anthropic",
		Anthropic: &AnthropicConfig{APIKey: "test-key", Model: "claude-3-5-haiku-latest"},
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("anthropic provider: %v", err)
	}
	if p.Provider() != "anthropic" || p.Model() != "claude-3-5-haiku-latest" {
		t.Fatalf("unexpected provider %s/%s", p.Provider(), p.Model())
	}
}

func TestSourcePaths(t *testing.T) {
	if hasSources(sourcePaths(nil)) {
		t.Fatalf("expected no sources without config")
	}

	paths := sourcePaths(&SourcesConfig{Resume: " resume.md "})
	if paths[generation.KindResume] != "resume.md" {
		t.Fatalf("unexpected resume path %q", paths[generation.KindResume])
	}
	if paths[generation.KindCoverLetter] != "" || !hasSources(paths) {
		t.Fatalf("unexpected paths %#v", paths)
	}
}

func TestStringOptions(t *testing.T) {
	if stringOptions(nil) != nil {
		t.Fatalf("expected nil options")
	}
	got := stringOptions(map[string]string{"tone": "formal"})
	if got["tone"] != "formal" {
		t.Fatalf("unexpected options %#v", got)
	}
}
