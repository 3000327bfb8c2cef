// Command seed-properties upserts properties from a JSON file into Postgres
// and drops their cached copies.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mchlbschmdt/ai-concierge/cmd/mainconfig"
	"github.com/mchlbschmdt/ai-concierge/internal/app/bootstrap"
	"github.com/mchlbschmdt/ai-concierge/internal/property"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: seed-properties <properties.json>")
		os.Exit(1)
	}
	cfg, logger := mainconfig.Load()
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	props, err := readProperties(os.Args[1])
	if err != nil {
		logger.Error("failed to read properties", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := property.NewPostgresRepository(pool)
	cache := property.NewCachedDirectory(repo, bootstrap.BuildRedisClient(ctx, cfg, logger, true), cfg.PropertyCacheTTL, logger)

	failed := 0
	for _, p := range props {
		if err := repo.Upsert(ctx, p); err != nil {
			logger.Error("upsert failed", "code", p.Code, "error", err)
			failed++
			continue
		}
		if err := cache.Invalidate(ctx, p); err != nil {
			logger.Warn("cache invalidation failed", "code", p.Code, "error", err)
		}
		logger.Info("property seeded", "code", p.Code, "name", p.Name)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func readProperties(path string) ([]*property.Property, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var props []*property.Property
	if err := json.Unmarshal(raw, &props); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return props, nil
}
