package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jose-valero/acm-community-bot/internal/domain"
)

type Options struct {
	Backend     string
	Path        string
	DatabaseURL string
	Bucket      BucketOptions
}

// Membership lo implementan los backends que registran entradas/salidas del bot.
type Membership interface {
	MarkLeft(ctx context.Context, guildID string, at time.Time) error
	MarkJoined(ctx context.Context, guildID string) error
	GetMany(ctx context.Context, ids []string) (map[string]domain.GuildConfig, error)
}

var _ Membership = (*GuildConfigRepo)(nil)

// OpenStore arma el backend configurado. close libera recursos (solo postgres).
func OpenStore(ctx context.Context, o Options) (store GuildConfigStore, closeFn func() error, err error) {
	noop := func() error { return nil }
	switch o.Backend {
	case "", BackendFile:
		return NewFileStore(o.Path), noop, nil
	case BackendS3:
		s, err := NewBucketStore(o.Bucket)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case BackendPostgres:
		if o.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("storage: DATABASE_URL requerido para postgres")
		}
		var db *sql.DB
		db, err = Open(ctx, o.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err = Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return NewGuildConfigRepo(db), db.Close, nil
	default:
		return nil, nil, unknownBackend(o.Backend)
	}
}
