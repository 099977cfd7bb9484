package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-tailor/internal/ai"
	"github.com/spigell/job-tailor/internal/ai/anthropic"
	"github.com/spigell/job-tailor/internal/ai/gemini"
	"github.com/spigell/job-tailor/internal/cache"
	"github.com/spigell/job-tailor/internal/generation"
	"github.com/spigell/job-tailor/internal/secrets"
)

const (
	cacheBackendFile  = "file"
	cacheBackendRedis = "redis"
)

func newAIProvider(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("ai section is not configured")
	}

	switch provider := strings.TrimSpace(strings.ToLower(cfg.Provider)); provider {
	case "", gemini.ProviderName:
		gc := cfg.Gemini
		if gc == nil {
			gc = &GeminiConfig{}
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: gc.APIKey,
			File:  gc.APIKeyFile,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or JOB_TAILOR_GEMINI_API_KEY_FILE)", err)
		}

		generator, err := gemini.NewGenerator(ctx, apiKey, gc.Model, gc.MaxLogLength, logger)
		if err != nil {
			return nil, err
		}
		return generator, nil
	case anthropic.ProviderName:
		ac := cfg.Anthropic
		if ac == nil {
			ac = &AnthropicConfig{}
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "anthropic api key",
			Value: ac.APIKey,
			File:  ac.APIKeyFile,
			Env:   "ANTHROPIC_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.anthropic.api-key-file or JOB_TAILOR_ANTHROPIC_API_KEY_FILE)", err)
		}

		generator, err := anthropic.NewGenerator(anthropic.Config{
			APIKey:       apiKey,
			Model:        ac.Model,
			MaxTokens:    ac.MaxTokens,
			MaxLogLength: ac.MaxLogLength,
		}, logger)
		if err != nil {
			return nil, err
		}
		return generator, nil
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

// newCache returns the cache and a function releasing its backend.
func newCache(ctx context.Context, config *Config, logger *zap.Logger) (*cache.Cache, func(), error) {
	cc := config.Cache
	if cc == nil {
		cc = &CacheConfig{}
	}

	switch backend := strings.TrimSpace(strings.ToLower(cc.Backend)); backend {
	case "", cacheBackendFile:
		dir := strings.TrimSpace(cc.Dir)
		if dir == "" {
			dir = filepath.Join(config.DataDir, "cache")
		}
		logger.Debug("using file cache", zap.String("dir", dir))
		return cache.New(cache.NewFileKV(dir), logger), func() {}, nil
	case cacheBackendRedis:
		if cc.Redis == nil || strings.TrimSpace(cc.Redis.URL) == "" {
			return nil, nil, fmt.Errorf("cache.redis.url is required for the redis cache backend")
		}

		kv, err := cache.NewRedisKV(ctx, cc.Redis.URL, cc.Redis.Prefix)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("using redis cache")

		return cache.New(kv, logger), func() {
			if err := kv.Close(); err != nil {
				logger.Warn("closing redis connection", zap.Error(err))
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported cache backend: %s", cc.Backend)
	}
}

// sourcePaths maps every document kind to its configured source file.
func sourcePaths(cfg *SourcesConfig) map[generation.Kind]string {
	if cfg == nil {
		return map[generation.Kind]string{}
	}

	return map[generation.Kind]string{
		generation.KindResume:      strings.TrimSpace(cfg.Resume),
		generation.KindCoverLetter: strings.TrimSpace(cfg.CoverLetter),
	}
}

func hasSources(paths map[generation.Kind]string) bool {
	for _, p := range paths {
		if p != "" {
			return true
		}
	}
	return false
}
