package db

import (
	"context"
	"fmt"
	"time"

	"hoa-backend/internal/config"
	"hoa-backend/pkg/utils"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DSN builds the postgres connection string from config.
func DSN(cfg *config.Config) string {
	sslMode := cfg.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		sslMode,
	)
}

func Connect(cfg *config.Config) *pgxpool.Pool {
	poolCfg, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		utils.Logger.Fatalf("db config invalid: %v", err)
	}
	if cfg.Database.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxConns
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		utils.Logger.Fatalf("db connect failed: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		utils.Logger.Fatalf("db ping failed: %v", err)
	}
	return pool
}
