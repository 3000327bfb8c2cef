// Package bootstrap wires the concierge's stores, caches and collaborators
// from configuration so every binary builds them the same way.
package bootstrap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/mchlbschmdt/ai-concierge/internal/config"
	"github.com/mchlbschmdt/ai-concierge/internal/conversation"
	"github.com/mchlbschmdt/ai-concierge/internal/events"
	"github.com/mchlbschmdt/ai-concierge/internal/property"
	"github.com/mchlbschmdt/ai-concierge/pkg/logging"
)

// ProcessedStore deduplicates carrier webhooks.
type ProcessedStore interface {
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
	Forget(ctx context.Context, provider, eventID string) error
}

// Runtime holds the long-lived dependencies shared by the API and workers.
type Runtime struct {
	Store      conversation.Store
	Properties property.Directory
	Processed  ProcessedStore
	Redis      *redis.Client

	TranscriptCache *conversation.TranscriptCache
	TranscriptStore *conversation.TranscriptStore

	closers []func()
}

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildRuntime opens the configured backends. UseMemoryStore swaps Postgres
// for in-process stores and a JSON property seed file.
func BuildRuntime(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	rt := &Runtime{}
	if rc := BuildRedisClient(ctx, cfg, logger, true); rc != nil {
		rt.Redis = rc
		rt.closers = append(rt.closers, func() { _ = rc.Close() })
		rt.TranscriptCache = conversation.NewTranscriptCache(rc)
	}

	if cfg.UseMemoryStore {
		dir, err := property.LoadStaticDirectory(cfg.PropertiesFile)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		rt.Store = conversation.NewMemoryStore()
		rt.Properties = dir
		rt.Processed = events.NewMemoryProcessedStore()
		logger.Info("using in-memory stores", "properties", dir.Len(), "redis", rt.Redis != nil)
		return rt, nil
	}

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		rt.Close()
		return nil, errors.New("bootstrap: DATABASE_URL is required unless USE_MEMORY_STORE is set")
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	rt.closers = append(rt.closers, pool.Close)

	rt.Store = conversation.NewPostgresStore(pool)
	rt.Processed = events.NewProcessedStore(pool)
	var dir property.Directory = property.NewPostgresRepository(pool)
	if rt.Redis != nil {
		dir = property.NewCachedDirectory(dir, rt.Redis, cfg.PropertyCacheTTL, logger)
	}
	rt.Properties = dir

	if cfg.TranscriptsOn {
		db := stdlib.OpenDBFromPool(pool)
		rt.closers = append(rt.closers, func() { _ = db.Close() })
		rt.TranscriptStore = conversation.NewTranscriptStore(db)
	}
	logger.Info("using postgres stores", "redis", rt.Redis != nil, "transcripts", rt.TranscriptStore != nil)
	return rt, nil
}

// Transcripts returns the best available transcript reader, or nil.
func (rt *Runtime) Transcripts() conversation.TranscriptLister {
	switch {
	case rt.TranscriptStore != nil:
		return rt.TranscriptStore
	case rt.TranscriptCache != nil:
		return rt.TranscriptCache
	}
	return nil
}

// WorkerOptions returns the transcript sinks for a conversation worker.
func (rt *Runtime) WorkerOptions() []conversation.WorkerOption {
	var opts []conversation.WorkerOption
	if rt.TranscriptCache != nil {
		opts = append(opts, conversation.WithTranscriptCache(rt.TranscriptCache))
	}
	if rt.TranscriptStore != nil {
		opts = append(opts, conversation.WithTranscriptStore(rt.TranscriptStore))
	}
	return opts
}

// Close releases everything BuildRuntime opened, newest first.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}
