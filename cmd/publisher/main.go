package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/ashifa-1/cms-backend/internal/infrastructure/cache"
	"github.com/ashifa-1/cms-backend/internal/infrastructure/config"
	"github.com/ashifa-1/cms-backend/internal/infrastructure/db/postgres"
	"github.com/ashifa-1/cms-backend/internal/publisher"
	"github.com/ashifa-1/cms-backend/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.Connect(ctx, postgres.Config{URL: cfg.DatabaseURL})
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	rdb, err := cache.Connect(ctx, cache.Config{URL: cfg.CacheURL})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect failed")
	}
	defer rdb.Close()

	repo := postgres.NewPostRepository(pool)
	postCache := cache.NewPostCache(rdb, cfg.CacheTTL, log)

	publisher.New(repo, postCache, cfg.PublisherInterval, log).Run(ctx)
}
