package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"

	"github.com/jose-valero/acm-community-bot/internal/app/metrics"
)

const alertCooldown = 10 * time.Minute

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

func (s Severity) color() int {
	switch s {
	case SeverityWarning:
		return ColorWarning
	case SeverityCritical:
		return ColorCritical
	default:
		return ColorBrand
	}
}

func (s Severity) emoji() string {
	switch s {
	case SeverityWarning:
		return "⚠️"
	case SeverityCritical:
		return "🚨"
	default:
		return "ℹ️"
	}
}

type Alert struct {
	Title       string
	Description string
	Severity    Severity
	Fields      []*discordgo.MessageEmbedField
}

const alertPerms = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionEmbedLinks

type AlertService struct {
	cfg       *ConfigService
	api       AlertAPI
	cooldowns Cooldowns
	window    *metrics.Window
	botID     func() string
	log       *slog.Logger
}

func NewAlertService(cfg *ConfigService, api AlertAPI, cds Cooldowns, w *metrics.Window, botID func() string, log *slog.Logger) *AlertService {
	return &AlertService{cfg: cfg, api: api, cooldowns: cds, window: w, botID: botID, log: log}
}

// Send publica la alerta en el canal de alertas (o anuncios). Máximo una por título cada 10 minutos.
func (s *AlertService) Send(ctx context.Context, guildID string, a Alert) (bool, error) {
	key := "alert:" + guildID + ":" + a.Title
	cd, err := s.cooldowns.Check(ctx, key, alertCooldown)
	if err != nil {
		return false, err
	}
	if !cd.Allowed {
		s.log.Debug("alerta limitada", "guild_id", guildID, "title", a.Title, "remaining", cd.Remaining)
		return false, nil
	}
	sent, err := s.send(ctx, guildID, a)
	if !sent {
		// no cuenta para el límite si no salió
		_ = s.cooldowns.Clear(ctx, key)
	}
	return sent, err
}

func (s *AlertService) send(ctx context.Context, guildID string, a Alert) (bool, error) {
	cfg, found, err := s.cfg.Get(ctx, guildID)
	if err != nil {
		return false, err
	}
	if !found {
		s.log.Warn("alerta sin config de servidor", "guild_id", guildID)
		return false, nil
	}
	channelID := cfg.Channels.Alerts
	if channelID == "" {
		channelID = cfg.Channels.Announcements
	}
	if channelID == "" {
		s.log.Warn("alerta sin canal de alertas ni anuncios", "guild_id", guildID)
		return false, nil
	}
	perms, err := s.api.UserChannelPermissions(s.botID(), channelID)
	if err != nil {
		return false, fmt.Errorf("permisos en %s: %w", channelID, err)
	}
	if perms&discordgo.PermissionAdministrator == 0 && perms&alertPerms != alertPerms {
		s.log.Warn("alerta: faltan permisos en el canal", "guild_id", guildID, "channel_id", channelID, "perms", perms)
		return false, nil
	}

	e := Embed(a.Severity.emoji()+" "+a.Title, a.Description, a.Fields...)
	e.Color = a.Severity.color()
	e.Footer = &discordgo.MessageEmbedFooter{Text: "Sistema de alertas"}
	if _, err := s.api.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{e},
	}); err != nil {
		return false, err
	}
	s.log.Info("alerta enviada", "guild_id", guildID, "channel_id", channelID, "title", a.Title, "severity", a.Severity)
	return true, nil
}

// CheckErrorRate alerta si la tasa de errores de la ventana supera el umbral del servidor.
func (s *AlertService) CheckErrorRate(ctx context.Context, guildID string) (bool, error) {
	cfg, found, err := s.cfg.Get(ctx, guildID)
	if err != nil || !found {
		return false, err
	}
	threshold := cfg.AlertThresholdOrDefault()
	if !s.window.CheckErrorThreshold(float64(threshold)) {
		return false, nil
	}
	snap := s.window.Snapshot()
	return s.Send(ctx, guildID, Alert{
		Title:       "Tasa de errores alta",
		Description: fmt.Sprintf("La tasa de errores superó el umbral de %d%% en los últimos %d minutos.", threshold, snap.WindowMinutes),
		Severity:    SeverityWarning,
		Fields: []*discordgo.MessageEmbedField{
			Field("Tasa", fmt.Sprintf("%.1f%%", snap.ErrorRate), true),
			Field("Errores", humanize.Comma(int64(snap.TotalErrors)), true),
			Field("Solicitudes", humanize.Comma(int64(snap.TotalRequests)), true),
		},
	})
}
