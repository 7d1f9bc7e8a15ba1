package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/acm-community-bot/internal/app/service"
)

// bienvenida en el canal configurado o, si no hay, en el canal de sistema
func (r *Router) onMemberAdd(s *discordgo.Session, ev *discordgo.GuildMemberAdd) {
	if ev.Member == nil || ev.User == nil || ev.User.Bot {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	cfg, _, err := r.cfg.Get(ctx, ev.GuildID)
	if err != nil {
		r.log.Warn("welcome: config", "guild_id", ev.GuildID, "err", err)
		return
	}
	channelID := cfg.Channels.Welcome
	if channelID == "" {
		if g, err := s.State.Guild(ev.GuildID); err == nil {
			channelID = g.SystemChannelID
		}
	}
	if channelID == "" {
		return
	}
	embed := service.Embed("¡Bienvenido!", fmt.Sprintf("Hola <@%s>, revisa #reglas y disfruta del servidor.", ev.User.ID))
	if _, err := s.ChannelMessageSendEmbed(channelID, embed); err != nil {
		r.log.Warn("welcome: no se pudo enviar", "guild_id", ev.GuildID, "channel_id", channelID, "err", err)
	}
}

func (r *Router) onReactionAdd(s *discordgo.Session, ev *discordgo.MessageReactionAdd) {
	if ev.MessageReaction == nil || ev.GuildID == "" {
		return
	}
	if s.State.User != nil && ev.UserID == s.State.User.ID {
		return
	}
	username := ""
	if ev.Member != nil && ev.Member.User != nil {
		if ev.Member.User.Bot {
			return
		}
		username = ev.Member.User.Username
	}
	if username == "" {
		u, err := s.User(ev.UserID)
		if err != nil {
			r.log.Warn("ticket: usuario", "user_id", ev.UserID, "err", err)
			return
		}
		if u.Bot {
			return
		}
		username = u.Username
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	tk, err := r.tickets.OpenFromReaction(ctx, ev.GuildID, ev.ChannelID, ev.MessageID, ev.UserID, username, ev.Emoji.Name)
	if err != nil {
		r.log.Error("ticket: no se pudo abrir", "guild_id", ev.GuildID, "user_id", ev.UserID, "err", err)
		return
	}
	if tk != nil {
		r.log.Info("ticket abierto", "guild_id", ev.GuildID, "user_id", ev.UserID, "category_id", tk.CategoryID)
	}
}

// cuenta mensajes humanos para el borrado de respuestas de /clear
func (r *Router) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	r.autoDelete.Seen(m.ChannelID)
}

func (r *Router) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if r.membership == nil || g.Guild == nil || g.Unavailable {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	if err := r.membership.MarkJoined(ctx, g.ID); err != nil {
		r.log.Warn("membership: joined", "guild_id", g.ID, "err", err)
	}
}

// GuildDelete con Unavailable es una caída de Discord, no una salida
func (r *Router) onGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	if r.membership == nil || g.Guild == nil || g.Unavailable {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	if err := r.membership.MarkLeft(ctx, g.ID, time.Now()); err != nil {
		r.log.Warn("membership: left", "guild_id", g.ID, "err", err)
		return
	}
	r.log.Info("bot removido del servidor", "guild_id", g.ID)
}
