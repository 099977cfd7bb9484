package generation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/job-tailor/internal/cache"
	"github.com/spigell/job-tailor/internal/jobs"
)

type fakeAI struct {
	mu       sync.Mutex
	calls    int
	prompts  []string
	response string
	err      error
}

func (f *fakeAI) GenerateContent(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeAI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSources struct {
	text  map[string]string
	mtime time.Time
}

func (f *fakeSources) ReadText(_ context.Context, path string) (string, error) {
	text, ok := f.text[path]
	if !ok {
		return "", errors.New("no such source")
	}
	return text, nil
}

func (f *fakeSources) StatMtime(_ context.Context, path string) (time.Time, error) {
	if _, ok := f.text[path]; !ok {
		return time.Time{}, errors.New("no such source")
	}
	return f.mtime, nil
}

func newTestGenerator(t *testing.T, ai *fakeAI, log *zap.Logger) (*Generator, *fakeSources) {
	t.Helper()

	sources := &fakeSources{
		text:  map[string]string{"resume.md": "# Jane Doe\nGo engineer"},
		mtime: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	c := cache.New(cache.NewFileKV(t.TempDir()), log)
	return New(c, ai, sources, log), sources
}

func testJob() *jobs.Listing {
	return &jobs.Listing{
		ID:          "job-42",
		Title:       "Senior Go Engineer",
		Company:     "Initech",
		Location:    "Remote",
		Description: "Build services in Go.",
	}
}

func resumeRequest() Request {
	return Request{Kind: KindResume, Job: testJob(), SourcePath: "resume.md"}
}

func TestGenerateCachesResult(t *testing.T) {
	t.Parallel()

	ai := &fakeAI{response: "# Jane Doe\nTailored\n\nCHANGES:\n- moved Go to the top\n- shortened summary"}
	g, _ := newTestGenerator(t, ai, nil)
	ctx := context.Background()

	first, err := g.Generate(ctx, resumeRequest())
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}
	if first.FromCache || !first.Stored {
		t.Fatalf("expected a fresh stored document, got %+v", first)
	}
	if first.Content != "# Jane Doe\nTailored\n" {
		t.Fatalf("unexpected content %q", first.Content)
	}
	if len(first.Changes) != 2 || first.Changes[0] != "moved Go to the top" {
		t.Fatalf("unexpected changes %#v", first.Changes)
	}

	second, err := g.Generate(ctx, resumeRequest())
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if ai.callCount() != 1 {
		t.Fatalf("expected one generation call, got %d", ai.callCount())
	}
	if !second.FromCache {
		t.Fatalf("expected cache hit on identical request")
	}
	if second.Content != first.Content || second.Fingerprint != first.Fingerprint {
		t.Fatalf("cached document differs: %+v vs %+v", second, first)
	}
	if len(second.Changes) != 2 {
		t.Fatalf("expected changes from metadata, got %#v", second.Changes)
	}
	if second.Metadata["source"] != "resume.md" || second.Metadata["job_id"] != "job-42" {
		t.Fatalf("unexpected metadata %#v", second.Metadata)
	}
}

func TestGenerateRegenerateBypassesLookupButStores(t *testing.T) {
	t.Parallel()

	ai := &fakeAI{response: "version one"}
	g, _ := newTestGenerator(t, ai, nil)
	ctx := context.Background()

	if _, err := g.Generate(ctx, resumeRequest()); err != nil {
		t.Fatalf("generate: %v", err)
	}

	ai.response = "version two"
	req := resumeRequest()
	req.Regenerate = true

	doc, err := g.Generate(ctx, req)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if doc.FromCache || doc.Content != "version two\n" {
		t.Fatalf("expected fresh content, got %+v", doc)
	}

	cached, err := g.Generate(ctx, resumeRequest())
	if err != nil {
		t.Fatalf("generate after regenerate: %v", err)
	}
	if !cached.FromCache || cached.Content != "version two\n" {
		t.Fatalf("expected regenerated content from cache, got %+v", cached)
	}
	if ai.callCount() != 2 {
		t.Fatalf("expected two generation calls, got %d", ai.callCount())
	}
}

func TestGenerateFailureIsNotCached(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	ai := &fakeAI{err: errors.New("quota exceeded")}
	g, _ := newTestGenerator(t, ai, zap.New(core))
	ctx := context.Background()

	_, err := g.Generate(ctx, resumeRequest())
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected provider error, got %v", err)
	}
	if !strings.Contains(err.Error(), "job-42") {
		t.Fatalf("expected job id in error, got %v", err)
	}
	if logs.FilterMessage("generation failed").Len() != 1 {
		t.Fatalf("expected failure to be logged")
	}

	ai.err = nil
	ai.response = "recovered"

	doc, err := g.Generate(ctx, resumeRequest())
	if err != nil {
		t.Fatalf("generate after failure: %v", err)
	}
	if doc.FromCache {
		t.Fatalf("failure must not leave a cache entry")
	}
	if ai.callCount() != 2 {
		t.Fatalf("expected a second generation call, got %d", ai.callCount())
	}
}

func TestGenerateSourceChangeInvalidates(t *testing.T) {
	t.Parallel()

	ai := &fakeAI{response: "tailored"}
	g, sources := newTestGenerator(t, ai, nil)
	ctx := context.Background()

	first, err := g.Generate(ctx, resumeRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	sources.mtime = sources.mtime.Add(time.Minute)

	second, err := g.Generate(ctx, resumeRequest())
	if err != nil {
		t.Fatalf("generate after touch: %v", err)
	}
	if second.FromCache || second.Fingerprint == first.Fingerprint {
		t.Fatalf("expected new fingerprint after mtime change")
	}

	other := resumeRequest()
	other.Job.Description = "Build services in Rust."
	third, err := g.Generate(ctx, other)
	if err != nil {
		t.Fatalf("generate for changed job: %v", err)
	}
	if third.FromCache {
		t.Fatalf("expected changed job posting to miss the cache")
	}
	if ai.callCount() != 3 {
		t.Fatalf("expected three generation calls, got %d", ai.callCount())
	}
}

func TestGenerateLogsStates(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	ai := &fakeAI{response: "tailored"}
	g, _ := newTestGenerator(t, ai, zap.New(core))

	if _, err := g.Generate(context.Background(), resumeRequest()); err != nil {
		t.Fatalf("generate: %v", err)
	}

	var states []string
	for _, entry := range logs.All() {
		if state, ok := entry.ContextMap()["state"].(string); ok {
			states = append(states, state)
		}
	}

	want := []string{"requested", "generating", "stored", "returned"}
	if strings.Join(states, ",") != strings.Join(want, ",") {
		t.Fatalf("expected states %v, got %v", want, states)
	}
}

func TestGenerateValidation(t *testing.T) {
	t.Parallel()

	g, _ := newTestGenerator(t, &fakeAI{response: "x"}, nil)

	tests := []struct {
		name string
		req  Request
	}{
		{name: "no job", req: Request{Kind: KindResume, SourcePath: "resume.md"}},
		{name: "no job id", req: Request{Kind: KindResume, Job: &jobs.Listing{Title: "x"}, SourcePath: "resume.md"}},
		{name: "no source", req: Request{Kind: KindResume, Job: testJob()}},
		{name: "unknown kind", req: Request{Kind: "poem", Job: testJob(), SourcePath: "resume.md"}},
		{name: "missing source", req: Request{Kind: KindResume, Job: testJob(), SourcePath: "missing.md"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := g.Generate(context.Background(), tt.req); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestGenerateEmptyResponseFails(t *testing.T) {
	t.Parallel()

	g, _ := newTestGenerator(t, &fakeAI{response: "```\n```"}, nil)
	if _, err := g.Generate(context.Background(), resumeRequest()); err == nil {
		t.Fatalf("expected error for empty document")
	}
}

func TestSplitChanges(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		raw         string
		wantContent string
		wantChanges []string
	}{
		{
			name:        "plain",
			raw:         "Dear team,\nhello",
			wantContent: "Dear team,\nhello\n",
		},
		{
			name:        "with changes",
			raw:         "Body\n\nChanges:\n* one\n- two\n",
			wantContent: "Body\n",
			wantChanges: []string{"one", "two"},
		},
		{
			name:        "fenced",
			raw:         "```markdown\n# Title\n```\nCHANGES:\n- one",
			wantContent: "# Title\n",
			wantChanges: []string{"one"},
		},
		{
			name:        "fenced with changes inside",
			raw:         "```markdown\n# Title\nCHANGES:\n- one\n```",
			wantContent: "# Title\n",
			wantChanges: []string{"one"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, changes := splitChanges(tt.raw)
			if content != tt.wantContent {
				t.Fatalf("expected content %q, got %q", tt.wantContent, content)
			}
			if strings.Join(changes, "|") != strings.Join(tt.wantChanges, "|") {
				t.Fatalf("expected changes %v, got %v", tt.wantChanges, changes)
			}
		})
	}
}

func TestBuildPromptKeepsSourcePlaceholders(t *testing.T) {
	t.Parallel()

	prompt := buildPrompt(KindCoverLetter, `{"title":"x"}`, "literal {{JOB_JSON}} in source", "{}")
	if !strings.Contains(prompt, "literal {{JOB_JSON}} in source") {
		t.Fatalf("source placeholders were substituted: %s", prompt)
	}
	if !strings.Contains(prompt, `{"title":"x"}`) {
		t.Fatalf("job json missing from prompt")
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]Kind{
		"resume":       KindResume,
		" Resume ":     KindResume,
		"cover-letter": KindCoverLetter,
		"cover_letter": KindCoverLetter,
	} {
		got, err := ParseKind(input)
		if err != nil || got != want {
			t.Fatalf("ParseKind(%q) = %q, %v", input, got, err)
		}
	}

	if _, err := ParseKind("poem"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestFingerprintMatchesGenerate(t *testing.T) {
	t.Parallel()

	g, sources := newTestGenerator(t, &fakeAI{response: "tailored"}, nil)

	doc, err := g.Generate(context.Background(), resumeRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	fp, err := Fingerprint(context.Background(), sources, resumeRequest())
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if fp != doc.Fingerprint {
		t.Fatalf("expected %s, got %s", doc.Fingerprint, fp)
	}
}
