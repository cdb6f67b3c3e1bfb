// Seeds the default author account. Safe to run repeatedly.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/ashifa-1/cms-backend/internal/core/domain"
	"github.com/ashifa-1/cms-backend/internal/core/service"
	"github.com/ashifa-1/cms-backend/internal/infrastructure/config"
	"github.com/ashifa-1/cms-backend/internal/infrastructure/db/postgres"
	"github.com/ashifa-1/cms-backend/pkg/logger"
)

const (
	seedEmail    = "author@example.com"
	seedPassword = "securepassword"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true})

	ctx := context.Background()

	pool, err := postgres.Connect(ctx, postgres.Config{URL: cfg.DatabaseURL})
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}

	users := postgres.NewUserRepository(pool)
	auth := service.NewAuthService(users, cfg.JWTSecret, cfg.JWTTTL, cfg.BcryptCost)

	if _, err := users.FindByEmail(ctx, seedEmail); err == nil {
		log.Info().Str("email", seedEmail).Msg("seed author already exists")
		os.Exit(0)
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		log.Fatal().Err(err).Msg("seed lookup failed")
	}

	user, err := auth.Register(ctx, seedEmail, seedPassword, domain.RoleAuthor)
	if err != nil {
		log.Fatal().Err(err).Msg("seed author creation failed")
	}
	log.Info().Str("email", user.Email).Str("id", user.ID.String()).Msg("seed author created")
}
