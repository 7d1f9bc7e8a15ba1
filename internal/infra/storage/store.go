package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jose-valero/acm-community-bot/internal/domain"
)

var ErrNotFound = errors.New("not found")

// GuildConfigStore persiste la config completa de cada servidor (sobrescritura total).
type GuildConfigStore interface {
	Get(ctx context.Context, guildID string) (domain.GuildConfig, error)
	Upsert(ctx context.Context, cfg domain.GuildConfig) error
	Delete(ctx context.Context, guildID string) (bool, error)
}

// Document es el formato JSON compartido por los backends file y s3.
type Document struct {
	Guilds map[string]domain.GuildConfig `json:"guilds"`
}

func newDocument() *Document { return &Document{Guilds: map[string]domain.GuildConfig{}} }

const (
	BackendFile     = "file"
	BackendS3       = "s3"
	BackendPostgres = "postgres"
)

func unknownBackend(name string) error {
	return fmt.Errorf("storage: backend desconocido %q", name)
}
