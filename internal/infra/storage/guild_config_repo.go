package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pq "github.com/lib/pq"

	"github.com/jose-valero/acm-community-bot/internal/domain"
)

// GuildConfigRepo es el backend postgres: una fila JSONB por servidor.
type GuildConfigRepo struct{ db *sql.DB }

func NewGuildConfigRepo(db *sql.DB) *GuildConfigRepo { return &GuildConfigRepo{db: db} }

func (r *GuildConfigRepo) Get(ctx context.Context, guildID string) (domain.GuildConfig, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `
SELECT config
  FROM guild_configs
 WHERE guild_id = $1
`, guildID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GuildConfig{}, ErrNotFound
	}
	if err != nil {
		return domain.GuildConfig{}, err
	}
	var cfg domain.GuildConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return domain.GuildConfig{}, fmt.Errorf("guild %s config json: %w", guildID, err)
	}
	cfg.GuildID = guildID
	return cfg, nil
}

// Upsert reemplaza el documento entero; left_at se conserva.
func (r *GuildConfigRepo) Upsert(ctx context.Context, cfg domain.GuildConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO guild_configs (guild_id, config)
VALUES ($1, $2)
ON CONFLICT (guild_id) DO UPDATE SET
  config     = EXCLUDED.config,
  updated_at = now()
`, cfg.GuildID, raw)
	return err
}

func (r *GuildConfigRepo) Delete(ctx context.Context, guildID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM guild_configs WHERE guild_id = $1`, guildID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// GetMany carga varias configs de una vez (p.ej. al arrancar, para los servidores del Ready).
func (r *GuildConfigRepo) GetMany(ctx context.Context, ids []string) (map[string]domain.GuildConfig, error) {
	out := map[string]domain.GuildConfig{}
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT guild_id, config
  FROM guild_configs
 WHERE guild_id = ANY($1)
`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		var cfg domain.GuildConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("guild %s config json: %w", id, err)
		}
		cfg.GuildID = id
		out[id] = cfg
	}
	return out, rows.Err()
}

// MarkLeft anota cuándo el bot salió del servidor; el janitor purga después.
func (r *GuildConfigRepo) MarkLeft(ctx context.Context, guildID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE guild_configs
   SET left_at = $2
 WHERE guild_id = $1
   AND left_at IS NULL
`, guildID, at)
	return err
}

func (r *GuildConfigRepo) MarkJoined(ctx context.Context, guildID string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE guild_configs
   SET left_at = NULL
 WHERE guild_id = $1
`, guildID)
	return err
}
