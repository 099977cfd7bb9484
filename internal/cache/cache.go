// Package cache stores generated documents keyed by a fingerprint of the
// inputs that produced them.
//
// Every entry is two values in the underlying KV: the content itself and a
// metadata record written after it. An entry whose metadata is unreadable,
// or whose content is missing or truncated, is reported as a miss.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-tailor/internal/logger"
)

// Miss explains why a lookup did not return an entry. The zero value is a hit.
type Miss string

const (
	Hit           Miss = ""
	MissAbsent    Miss = "absent"
	MissCorrupt   Miss = "corrupt"
	MissNoContent Miss = "missing-content"
	MissBackend   Miss = "backend-error"
)

// Key addresses an entry: scope is usually a job id, type the document kind.
type Key struct {
	Scope       string
	Type        string
	Fingerprint string
}

func (k Key) validate() error {
	for name, v := range map[string]string{"scope": k.Scope, "type": k.Type, "fingerprint": k.Fingerprint} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("cache key %s is empty", name)
		}
		if strings.ContainsAny(v, `/\:`) || v == "." || v == ".." {
			return fmt.Errorf("cache key %s %q contains a separator", name, v)
		}
	}
	return nil
}

func (k Key) base() string {
	return k.Scope + "/" + k.Type + "/" + k.Fingerprint
}

func (k Key) contentKey() string { return k.base() + ".content" }
func (k Key) metaKey() string    { return k.base() + ".meta.json" }

// Entry is a cached document. Metadata always has the shape encoding/json
// gives it: lists are []any, objects map[string]any and numbers float64.
type Entry struct {
	Key       Key
	Content   string
	Metadata  map[string]any
	CreatedAt time.Time
}

type record struct {
	Scope         string         `json:"scope"`
	Type          string         `json:"type"`
	Fingerprint   string         `json:"fingerprint"`
	ContentLength int            `json:"content_length"`
	CreatedAt     time.Time      `json:"created_at"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

type Cache struct {
	kv     KV
	logger *zap.Logger
	now    func() time.Time
}

func New(kv KV, log *zap.Logger) *Cache {
	return &Cache{
		kv:     kv,
		logger: logger.WithFields(log),
		now:    time.Now,
	}
}

// Lookup returns the entry for key or the reason it could not be served.
func (c *Cache) Lookup(ctx context.Context, key Key) (*Entry, Miss) {
	log := c.logger.With(logger.CacheFields(key.Scope, key.Type, key.Fingerprint)...)

	if err := key.validate(); err != nil {
		log.Warn("invalid cache key", zap.Error(err))
		return nil, MissAbsent
	}

	raw, err := c.kv.Get(ctx, key.metaKey())
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, MissAbsent
	case err != nil:
		log.Warn("cache metadata read failed", zap.Error(err))
		return nil, MissBackend
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		log.Warn("cache metadata is corrupt", zap.Error(err))
		return nil, MissCorrupt
	}
	if rec.Fingerprint != key.Fingerprint || rec.Type != key.Type || rec.Scope != key.Scope {
		log.Warn("cache metadata does not match its key",
			zap.String("stored_fingerprint", rec.Fingerprint),
			zap.String("stored_type", rec.Type),
		)
		return nil, MissCorrupt
	}

	content, err := c.kv.Get(ctx, key.contentKey())
	switch {
	case errors.Is(err, ErrNotFound):
		log.Warn("cache content is missing")
		return nil, MissNoContent
	case err != nil:
		log.Warn("cache content read failed", zap.Error(err))
		return nil, MissBackend
	}
	if len(content) != rec.ContentLength {
		log.Warn("cache content length mismatch",
			zap.Int("expected", rec.ContentLength),
			zap.Int("actual", len(content)),
		)
		return nil, MissCorrupt
	}

	return &Entry{
		Key:       key,
		Content:   string(content),
		Metadata:  rec.Metadata,
		CreatedAt: rec.CreatedAt,
	}, Hit
}

// Store writes content first and metadata second, so a reader that sees the
// metadata always finds the content next to it.
func (c *Cache) Store(ctx context.Context, key Key, content string, metadata map[string]any) (*Entry, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}

	rec := record{
		Scope:         key.Scope,
		Type:          key.Type,
		Fingerprint:   key.Fingerprint,
		ContentLength: len(content),
		CreatedAt:     c.now().UTC(),
		Metadata:      metadata,
	}

	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode cache metadata: %w", err)
	}

	// the returned entry carries the same metadata a later Lookup decodes
	var stored record
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode cache metadata: %w", err)
	}

	if err := c.kv.Put(ctx, key.contentKey(), []byte(content)); err != nil {
		return nil, fmt.Errorf("write cache content: %w", err)
	}
	if err := c.kv.Put(ctx, key.metaKey(), raw); err != nil {
		return nil, fmt.Errorf("write cache metadata: %w", err)
	}

	c.logger.Debug("cache entry stored",
		append(logger.CacheFields(key.Scope, key.Type, key.Fingerprint), zap.Int("content_length", len(content)))...,
	)

	return &Entry{
		Key:       key,
		Content:   content,
		Metadata:  stored.Metadata,
		CreatedAt: rec.CreatedAt,
	}, nil
}
