package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// configs de servidores que el bot dejó hace más de retention
const retention = 30 * 24 * time.Hour

const purgeSQL = `
DELETE FROM guild_configs
WHERE left_at IS NOT NULL
  AND left_at < now() - make_interval(secs => $1);`

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func purge(ctx context.Context, db execer, olderThan time.Duration) (int64, error) {
	tag, err := db.Exec(ctx, purgeSQL, olderThan.Seconds())
	if err != nil {
		return 0, fmt.Errorf("purge guild_configs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func handler(ctx context.Context) (string, error) {
	log := slog.Default().With("job", "janitor")
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return "no DATABASE_URL", nil
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Sprintf("parse: %v", err), nil
	}
	cfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Sprintf("pool: %v", err), nil
	}
	defer pool.Close()

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := purge(cctx, pool, retention)
	if err != nil {
		log.Error("purge", "err", err)
		return "", err
	}
	log.Info("configs purgadas", "rows", n)
	return fmt.Sprintf("ok (%d)", n), nil
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	lambda.Start(handler)
}
