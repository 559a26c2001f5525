package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/toko-pricing/internal/app"
	"github.com/noah-isme/toko-pricing/internal/auth"
	"github.com/noah-isme/toko-pricing/internal/config"
	"github.com/noah-isme/toko-pricing/internal/db"
	dbgen "github.com/noah-isme/toko-pricing/internal/db/gen"
	"github.com/noah-isme/toko-pricing/internal/fixtures"
	"github.com/noah-isme/toko-pricing/internal/obs"
)

func main() {
	migrate := flag.Bool("migrate", true, "apply migrations before seeding")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of the printed admin token, 0 to skip")
	flag.Parse()

	cfg := config.MustLoad()
	logger := obs.NewLogger("console", cfg.Obs.LogLevel)

	if *migrate {
		if err := db.MigrateUp(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := app.NewPool(ctx, cfg.DatabaseURL, "pricing-seeder")
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	err = db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		return fixtures.Seed(ctx, dbgen.New(tx), logger)
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("seed fixtures")
	}

	if *tokenTTL <= 0 {
		return
	}
	verifier, err := auth.NewVerifier(auth.Config{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("jwt verifier")
	}
	token, err := verifier.Issue(uuid.New(), []string{"admin"}, *tokenTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("issue admin token")
	}
	fmt.Println(token)
}
