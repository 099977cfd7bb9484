// Package generation produces tailored resumes and cover letters for a job,
// reusing a cached document whenever the inputs have not changed.
//
// A request moves through requested, then either returned (cache hit) or
// generating, stored and returned. A failed generation is reported to the
// caller and never cached.
package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spigell/job-tailor/internal/ai"
	"github.com/spigell/job-tailor/internal/cache"
	"github.com/spigell/job-tailor/internal/jobs"
	"github.com/spigell/job-tailor/internal/logger"
)

const defaultMaxLogLength = 200

// Request describes one document to produce. Regenerate skips the cache
// lookup; the fresh result is still stored.
type Request struct {
	Kind       Kind
	Job        *jobs.Listing
	SourcePath string
	Options    map[string]any
	Regenerate bool
}

// Document is a generated or cached document.
type Document struct {
	Kind        Kind           `json:"kind"`
	JobID       string         `json:"job_id"`
	Fingerprint string         `json:"fingerprint"`
	Content     string         `json:"-"`
	Changes     []string       `json:"changes,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	FromCache   bool           `json:"from_cache"`
	Stored      bool           `json:"stored"`
	CreatedAt   time.Time      `json:"created_at"`
}

type Generator struct {
	cache     *cache.Cache
	ai        ai.Generator
	sources   SourceReader
	logger    *zap.Logger
	maxLogLen int
	group     singleflight.Group
	now       func() time.Time
}

func New(c *cache.Cache, gen ai.Generator, sources SourceReader, log *zap.Logger) *Generator {
	if sources == nil {
		sources = FileSources{}
	}

	return &Generator{
		cache:     c,
		ai:        gen,
		sources:   sources,
		logger:    logger.WithFields(log),
		maxLogLen: defaultMaxLogLength,
		now:       time.Now,
	}
}

// normalize validates the request and rewrites the kind to its canonical form.
func (r *Request) normalize() error {
	switch {
	case r.Job == nil:
		return errors.New("job is required")
	case strings.TrimSpace(r.Job.ID) == "":
		return errors.New("job id is required")
	case strings.TrimSpace(r.SourcePath) == "":
		return fmt.Errorf("source path for %s is required", r.Kind)
	}

	kind, err := ParseKind(string(r.Kind))
	if err != nil {
		return err
	}
	r.Kind = kind
	return nil
}

// Generate returns the document for the request, calling the text generator
// only when no usable cache entry exists or regeneration was asked for.
// Identical requests running at the same time share one generation call.
func (g *Generator) Generate(ctx context.Context, req Request) (*Document, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	if g.cache == nil || g.ai == nil {
		return nil, errors.New("generator is not initialized")
	}

	in, err := prepare(ctx, g.sources, req)
	if err != nil {
		return nil, err
	}

	key := cache.Key{Scope: req.Job.ID, Type: string(req.Kind), Fingerprint: in.fingerprint}
	log := g.logger.With(logger.CacheFields(key.Scope, key.Type, key.Fingerprint)...)

	log.Info("generation requested",
		zap.String("state", "requested"),
		zap.Bool("regenerate", req.Regenerate),
		zap.String("source", req.SourcePath),
	)

	if !req.Regenerate {
		entry, miss := g.cache.Lookup(ctx, key)
		if miss == cache.Hit {
			doc := documentFromEntry(req.Kind, entry)
			log.Info("generation returned", zap.String("state", "returned"), zap.Bool("from_cache", true))
			return doc, nil
		}
		log.Debug("cache miss", zap.String("reason", string(miss)))
	}

	v, err, shared := g.group.Do(key.Scope+"/"+key.Type+"/"+key.Fingerprint, func() (any, error) {
		return g.generate(ctx, req, key, in, log)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Debug("joined an in-flight generation")
	}

	doc := *v.(*Document)
	log.Info("generation returned", zap.String("state", "returned"), zap.Bool("from_cache", false))
	return &doc, nil
}

func (g *Generator) generate(ctx context.Context, req Request, key cache.Key, in *inputs, log *zap.Logger) (*Document, error) {
	optionsJSON, err := json.MarshalIndent(in.options, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal options: %w", err)
	}

	prompt := buildPrompt(req.Kind, string(in.jobJSON), in.source, string(optionsJSON))

	log.Info("generating document", zap.String("state", "generating"))
	log.Debug("generation prompt",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, g.maxLogLen)),
	)

	raw, err := g.ai.GenerateContent(ctx, prompt)
	if err != nil {
		log.Warn("generation failed", zap.String("state", "failed"), zap.Error(err))
		return nil, fmt.Errorf("generate %s for job %s: %w", req.Kind, req.Job.ID, err)
	}

	content, changes := splitChanges(raw)
	if strings.TrimSpace(content) == "" {
		log.Warn("generation failed", zap.String("state", "failed"), zap.String("reason", "empty document"))
		return nil, fmt.Errorf("generate %s for job %s: empty document", req.Kind, req.Job.ID)
	}

	now := g.now().UTC()
	metadata := map[string]any{
		"changes":      changes,
		"source":       req.SourcePath,
		"job_id":       req.Job.ID,
		"generated_at": now.Format(time.RFC3339),
		"options":      in.options,
	}

	doc := &Document{
		Kind:        req.Kind,
		JobID:       req.Job.ID,
		Fingerprint: key.Fingerprint,
		Content:     content,
		Changes:     changes,
		Metadata:    metadata,
		CreatedAt:   now,
	}

	entry, err := g.cache.Store(ctx, key, content, metadata)
	if err != nil {
		// the document is still good; the next identical request regenerates it
		log.Warn("storing generated document failed", zap.Error(err))
		return doc, nil
	}

	doc.Stored = true
	doc.Metadata = entry.Metadata
	log.Info("generated document stored", zap.String("state", "stored"), zap.Int("changes", len(changes)))
	return doc, nil
}

// inputs are everything a request resolves to before the cache is consulted.
type inputs struct {
	source      string
	jobJSON     []byte
	options     map[string]any
	fingerprint string
}

func prepare(ctx context.Context, sources SourceReader, req Request) (*inputs, error) {
	source, err := sources.ReadText(ctx, req.SourcePath)
	if err != nil {
		return nil, err
	}
	mtime, err := sources.StatMtime(ctx, req.SourcePath)
	if err != nil {
		return nil, err
	}

	jobJSON, err := json.MarshalIndent(req.Job, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal job %s: %w", req.Job.ID, err)
	}

	options := requestOptions(req, jobJSON)
	fp, err := cache.Fingerprint(string(req.Kind), source, mtime, options)
	if err != nil {
		return nil, fmt.Errorf("fingerprint %s for job %s: %w", req.Kind, req.Job.ID, err)
	}

	return &inputs{source: source, jobJSON: jobJSON, options: options, fingerprint: fp}, nil
}

// Fingerprint returns the cache fingerprint Generate would use for the request.
func Fingerprint(ctx context.Context, sources SourceReader, req Request) (string, error) {
	if err := req.normalize(); err != nil {
		return "", err
	}
	if sources == nil {
		sources = FileSources{}
	}

	in, err := prepare(ctx, sources, req)
	if err != nil {
		return "", err
	}
	return in.fingerprint, nil
}

// requestOptions merges caller options with the job identity so a changed
// posting produces a new fingerprint.
func requestOptions(req Request, jobJSON []byte) map[string]any {
	options := make(map[string]any, len(req.Options)+2)
	maps.Copy(options, req.Options)
	options["job_id"] = req.Job.ID
	options["job_digest"] = fmt.Sprintf("%016x", xxhash.Sum64(jobJSON))
	return options
}

func documentFromEntry(kind Kind, entry *cache.Entry) *Document {
	doc := &Document{
		Kind:        kind,
		JobID:       entry.Key.Scope,
		Fingerprint: entry.Key.Fingerprint,
		Content:     entry.Content,
		Metadata:    entry.Metadata,
		FromCache:   true,
		Stored:      true,
		CreatedAt:   entry.CreatedAt,
	}

	if raw, ok := entry.Metadata["changes"].([]any); ok {
		for _, item := range raw {
			if s, ok := item.(string); ok {
				doc.Changes = append(doc.Changes, s)
			}
		}
	}
	return doc
}

// splitChanges separates the document from a trailing CHANGES: block.
func splitChanges(raw string) (string, []string) {
	lines := strings.Split(strings.TrimSpace(raw), "\n")

	marker := len(lines)
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.EqualFold(strings.TrimSpace(lines[i]), "CHANGES:") {
			marker = i
			break
		}
	}

	var changes []string
	for _, line := range lines[min(marker+1, len(lines)):] {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "```") {
			continue
		}
		if line = strings.TrimLeft(line, "-*• "); line != "" {
			changes = append(changes, line)
		}
	}

	content := stripFences(strings.Join(lines[:marker], "\n"))
	if content == "" {
		return "", changes
	}
	return content + "\n", changes
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}

	if idx := strings.Index(raw, "\n"); idx != -1 {
		raw = raw[idx+1:]
	} else {
		raw = strings.TrimPrefix(raw, "```")
	}
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}
