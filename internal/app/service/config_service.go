package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jose-valero/acm-community-bot/internal/domain"
	"github.com/jose-valero/acm-community-bot/internal/infra/storage"
)

// ConfigService serializa las escrituras de GuildConfig dentro del proceso.
type ConfigService struct {
	store ConfigStore
	mu    sync.Mutex
}

func NewConfigService(store ConfigStore) *ConfigService { return &ConfigService{store: store} }

// Get devuelve la config guardada; found=false si el servidor no corrió /setup.
func (s *ConfigService) Get(ctx context.Context, guildID string) (domain.GuildConfig, bool, error) {
	cfg, err := s.store.Get(ctx, guildID)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.NewGuildConfig(guildID), false, nil
	}
	if err != nil {
		return domain.GuildConfig{}, false, err
	}
	return normalize(cfg, guildID), true, nil
}

func normalize(cfg domain.GuildConfig, guildID string) domain.GuildConfig {
	cfg.GuildID = guildID
	if cfg.OpenTickets == nil {
		cfg.OpenTickets = map[string]domain.OpenTicket{}
	}
	if cfg.VerificationEmails == nil {
		cfg.VerificationEmails = map[string]string{}
	}
	return cfg
}

// Update hace read-modify-write bajo lock. Si fn falla no se guarda nada.
func (s *ConfigService) Update(ctx context.Context, guildID string, fn func(*domain.GuildConfig) error) (domain.GuildConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, _, err := s.Get(ctx, guildID)
	if err != nil {
		return domain.GuildConfig{}, err
	}
	if err := fn(&cfg); err != nil {
		return domain.GuildConfig{}, err
	}
	if err := s.store.Upsert(ctx, cfg); err != nil {
		return domain.GuildConfig{}, fmt.Errorf("guardar config %s: %w", guildID, err)
	}
	return cfg, nil
}

// Save reemplaza la config completa (confirmación de /setup) conservando
// los datos que el wizard no edita.
func (s *ConfigService) Save(ctx context.Context, next domain.GuildConfig) error {
	_, err := s.Update(ctx, next.GuildID, func(cur *domain.GuildConfig) error {
		next.OpenTickets = cur.OpenTickets
		next.VerificationEmails = cur.VerificationEmails
		next.TicketMessageID = cur.TicketMessageID
		if next.AlertThreshold <= 0 {
			next.AlertThreshold = cur.AlertThresholdOrDefault()
		}
		*cur = next.Clone()
		return nil
	})
	return err
}

func (s *ConfigService) Reset(ctx context.Context, guildID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Delete(ctx, guildID)
}

type ConfigPatch struct {
	AlertThreshold *int
	AlertsChannel  *string
}

func (s *ConfigService) Patch(ctx context.Context, guildID string, p ConfigPatch) (string, error) {
	if p.AlertThreshold != nil && (*p.AlertThreshold < 1 || *p.AlertThreshold > 100) {
		return "⚠️ El umbral de alertas debe estar entre 1 y 100.", nil
	}
	cfg, err := s.Update(ctx, guildID, func(c *domain.GuildConfig) error {
		if p.AlertThreshold != nil {
			c.AlertThreshold = *p.AlertThreshold
		}
		if p.AlertsChannel != nil {
			c.Channels.Alerts = *p.AlertsChannel
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return Describe(cfg), nil
}

// Describe resume la config para respuestas de texto.
func Describe(c domain.GuildConfig) string {
	or := func(id, prefix string) string {
		if id == "" {
			return "—"
		}
		return "<" + prefix + id + ">"
	}
	pool := make([]string, 0, len(c.Channels.VCPool))
	for _, id := range c.Channels.VCPool {
		pool = append(pool, "<#"+id+">")
	}
	poolTxt := "—"
	if len(pool) > 0 {
		poolTxt = strings.Join(pool, " ")
	}
	alerts := c.Channels.Alerts
	alertsTxt := or(alerts, "#")
	if alerts == "" && c.Channels.Announcements != "" {
		alertsTxt = "(usa anuncios) <#" + c.Channels.Announcements + ">"
	}
	return fmt.Sprintf(
		"**Configuración**\n• Admin: %s\n• Junta: %s\n• Verificado: %s\n• Javeriana: %s\n• Bienvenida: %s\n• Tickets: %s\n• Anuncios: %s\n• Alertas: %s\n• VC Create: %s\n• VC Pool: %s\n• Umbral de alertas: **%d%%**",
		or(c.Roles.Admin, "@&"), or(c.Roles.Junta, "@&"), or(c.Roles.Verify, "@&"), or(c.Roles.VerifyInstitutional, "@&"),
		or(c.Channels.Welcome, "#"), or(c.Channels.TicketTrigger, "#"), or(c.Channels.Announcements, "#"),
		alertsTxt, or(c.Channels.VCCreate, "#"), poolTxt, c.AlertThresholdOrDefault(),
	)
}
