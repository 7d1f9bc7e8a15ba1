package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jose-valero/acm-community-bot/internal/domain"
)

// blob es donde vive el documento: un archivo local o un objeto en el bucket.
type blob interface {
	// read devuelve nil, nil si todavía no existe.
	read(ctx context.Context) ([]byte, error)
	write(ctx context.Context, data []byte) error
}

// documentStore implementa GuildConfigStore sobre un documento JSON único.
// Cada operación relee el documento para ver cambios hechos fuera del proceso.
type documentStore struct {
	mu sync.Mutex
	b  blob
}

func (s *documentStore) load(ctx context.Context) (*Document, error) {
	raw, err := s.b.read(ctx)
	if err != nil {
		return nil, err
	}
	doc := newDocument()
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("config json: %w", err)
	}
	if doc.Guilds == nil {
		doc.Guilds = map[string]domain.GuildConfig{}
	}
	return doc, nil
}

func (s *documentStore) save(ctx context.Context, doc *Document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return s.b.write(ctx, raw)
}

func (s *documentStore) Get(ctx context.Context, guildID string) (domain.GuildConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(ctx)
	if err != nil {
		return domain.GuildConfig{}, err
	}
	cfg, ok := doc.Guilds[guildID]
	if !ok {
		return domain.GuildConfig{}, ErrNotFound
	}
	if cfg.GuildID == "" {
		cfg.GuildID = guildID
	}
	return cfg, nil
}

func (s *documentStore) Upsert(ctx context.Context, cfg domain.GuildConfig) error {
	if cfg.GuildID == "" {
		return fmt.Errorf("storage: guildId vacío")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	doc.Guilds[cfg.GuildID] = cfg.Clone()
	return s.save(ctx, doc)
}

func (s *documentStore) Delete(ctx context.Context, guildID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	if _, ok := doc.Guilds[guildID]; !ok {
		return false, nil
	}
	delete(doc.Guilds, guildID)
	return true, s.save(ctx, doc)
}
