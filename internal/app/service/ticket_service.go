package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/acm-community-bot/internal/domain"
)

const (
	TicketEmoji = "🎫"

	defaultTicketDescription = "Reacciona con 🎫 para abrir un ticket con la JUNTA."

	ticketMemberAllow = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages |
		discordgo.PermissionVoiceConnect | discordgo.PermissionVoiceSpeak
)

type TicketService struct {
	cfg *ConfigService
	api TicketAPI
	log *slog.Logger
}

func NewTicketService(cfg *ConfigService, api TicketAPI, log *slog.Logger) *TicketService {
	return &TicketService{cfg: cfg, api: api, log: log}
}

// PublishTrigger publica el mensaje de tickets y deja la reacción 🎫.
func (s *TicketService) PublishTrigger(ctx context.Context, guildID, description string) (string, error) {
	cfg, _, err := s.cfg.Get(ctx, guildID)
	if err != nil {
		return "", err
	}
	if cfg.Channels.TicketTrigger == "" {
		return "Canal de tickets no configurado. Usa /setup.", nil
	}
	if strings.TrimSpace(description) == "" {
		description = defaultTicketDescription
	}
	msg, err := s.api.ChannelMessageSendComplex(cfg.Channels.TicketTrigger, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{Embed("🎫 Tickets", description)},
	})
	if err != nil {
		return "", fmt.Errorf("publicar mensaje de tickets: %w", err)
	}
	if err := s.api.MessageReactionAdd(msg.ChannelID, msg.ID, TicketEmoji); err != nil {
		s.log.Warn("ticket: no se pudo reaccionar", "guild_id", guildID, "err", err)
	}
	if _, err := s.cfg.Update(ctx, guildID, func(c *domain.GuildConfig) error {
		c.TicketMessageID = msg.ID
		return nil
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Mensaje de tickets publicado en <#%s>.", cfg.Channels.TicketTrigger), nil
}

var reChannelName = regexp.MustCompile(`[^a-z0-9\-_]+`)

func ticketName(username string) string {
	n := reChannelName.ReplaceAllString(strings.ToLower(username), "")
	if n == "" {
		n = "user"
	}
	if len(n) > 80 {
		n = n[:80]
	}
	return "ticket-" + n
}

func ticketOverwrites(guildID, userID, juntaRoleID string) []*discordgo.PermissionOverwrite {
	ow := []*discordgo.PermissionOverwrite{
		{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
		{ID: userID, Type: discordgo.PermissionOverwriteTypeMember, Allow: ticketMemberAllow},
	}
	if juntaRoleID != "" {
		ow = append(ow, &discordgo.PermissionOverwrite{ID: juntaRoleID, Type: discordgo.PermissionOverwriteTypeRole, Allow: ticketMemberAllow})
	}
	return ow
}

// OpenFromReaction crea categoría + texto + voz para el usuario que reaccionó.
// Devuelve el ticket creado o nil si la reacción no aplica.
func (s *TicketService) OpenFromReaction(ctx context.Context, guildID, channelID, messageID, userID, username, emoji string) (*domain.OpenTicket, error) {
	cfg, found, err := s.cfg.Get(ctx, guildID)
	if err != nil || !found {
		return nil, err
	}
	if cfg.Channels.TicketTrigger == "" || channelID != cfg.Channels.TicketTrigger || emoji != TicketEmoji {
		return nil, nil
	}
	if err := s.api.MessageReactionRemove(channelID, messageID, emoji, userID); err != nil {
		s.log.Warn("ticket: no se pudo quitar la reacción", "guild_id", guildID, "user_id", userID, "err", err)
	}

	if prev, ok := cfg.OpenTickets[userID]; ok {
		if ch, err := s.api.Channel(prev.CategoryID); err == nil && ch != nil {
			s.log.Info("ticket: el usuario ya tiene uno abierto", "guild_id", guildID, "user_id", userID, "category_id", prev.CategoryID)
			return nil, nil
		}
	}

	name := ticketName(username)
	ow := ticketOverwrites(guildID, userID, cfg.Roles.Junta)
	cat, err := s.api.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name: name, Type: discordgo.ChannelTypeGuildCategory, PermissionOverwrites: ow,
	})
	if err != nil {
		return nil, fmt.Errorf("crear categoría de ticket: %w", err)
	}
	text, err := s.api.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name: name + "-txt", Type: discordgo.ChannelTypeGuildText, ParentID: cat.ID, PermissionOverwrites: ow,
	})
	if err != nil {
		return nil, fmt.Errorf("crear canal de texto: %w", err)
	}
	voice, err := s.api.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name: name + "-vc", Type: discordgo.ChannelTypeGuildVoice, ParentID: cat.ID, PermissionOverwrites: ow,
	})
	if err != nil {
		return nil, fmt.Errorf("crear canal de voz: %w", err)
	}

	tk := domain.OpenTicket{CategoryID: cat.ID, TextID: text.ID, VoiceID: voice.ID}
	if _, err := s.cfg.Update(ctx, guildID, func(c *domain.GuildConfig) error {
		c.OpenTickets[userID] = tk
		return nil
	}); err != nil {
		return nil, err
	}

	_, err = s.api.ChannelMessageSendComplex(text.ID, &discordgo.MessageSend{
		Content: "<@" + userID + ">",
		Embeds: []*discordgo.MessageEmbed{Embed("Ticket creado", "Un miembro de JUNTA te atenderá pronto.",
			Field("Solicitante", "<@"+userID+">", true),
			Field("Texto", "<#"+text.ID+">", true),
			Field("Voz", "<#"+voice.ID+">", true),
		)},
	})
	if err != nil {
		s.log.Warn("ticket: no se pudo enviar la bienvenida", "guild_id", guildID, "channel_id", text.ID, "err", err)
	}
	s.log.Info("ticket abierto", "guild_id", guildID, "user_id", userID, "category_id", cat.ID)
	return &tk, nil
}

const notATicket = "Este canal no pertenece a un ticket abierto."

// Close borra el canal actual, los hermanos de su categoría y la categoría.
func (s *TicketService) Close(ctx context.Context, guildID, channelID string) (string, error) {
	ch, err := s.api.Channel(channelID)
	if err != nil {
		return "", fmt.Errorf("canal %s: %w", channelID, err)
	}
	categoryID := ch.ParentID
	if categoryID == "" {
		return notATicket, nil
	}

	// sólo categorías registradas como ticket abierto
	cfg, found, err := s.cfg.Get(ctx, guildID)
	if err != nil {
		return "", err
	}
	if _, _, ok := cfg.TicketByCategory(categoryID); !found || !ok {
		return notATicket, nil
	}
	if _, err := s.cfg.Update(ctx, guildID, func(c *domain.GuildConfig) error {
		if uid, _, ok := c.TicketByCategory(categoryID); ok {
			delete(c.OpenTickets, uid)
		}
		return nil
	}); err != nil {
		return "", err
	}

	chans, err := s.api.GuildChannels(guildID)
	if err != nil {
		return "", err
	}
	var failed int
	del := func(id string) {
		if _, err := s.api.ChannelDelete(id, discordgo.WithAuditLogReason("Ticket cerrado")); err != nil {
			failed++
			s.log.Warn("ticket: no se pudo borrar canal", "guild_id", guildID, "channel_id", id, "err", err)
		}
	}
	del(channelID)
	for _, c := range chans {
		if c.ParentID == categoryID && c.ID != channelID {
			del(c.ID)
		}
	}
	del(categoryID)
	if failed > 0 {
		return fmt.Sprintf("⚠️ Ticket cerrado, pero %d canal(es) no se pudieron borrar.", failed), nil
	}
	return "Ticket cerrado", nil
}
