package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/acm-community-bot/internal/app/service"
)

// StateOccupancy lee la ocupación de los canales de voz desde el State del gateway.
type StateOccupancy struct {
	state *discordgo.State
}

var _ service.Occupancy = (*StateOccupancy)(nil)

func NewStateOccupancy(state *discordgo.State) *StateOccupancy {
	return &StateOccupancy{state: state}
}

func (o *StateOccupancy) HumansIn(guildID, channelID string) []string {
	g, err := o.state.Guild(guildID)
	if err != nil || g == nil {
		return nil
	}
	o.state.RLock()
	voice := make([]*discordgo.VoiceState, len(g.VoiceStates))
	copy(voice, g.VoiceStates)
	o.state.RUnlock()

	var out []string
	for _, vs := range voice {
		if vs.ChannelID != channelID || o.isBot(guildID, vs) {
			continue
		}
		out = append(out, vs.UserID)
	}
	return out
}

func (o *StateOccupancy) IsVoice(guildID, channelID string) bool {
	ch, err := o.state.Channel(channelID)
	if err != nil || ch == nil {
		return false
	}
	if ch.GuildID != "" && ch.GuildID != guildID {
		return false
	}
	return isVoiceChannel(ch.Type)
}

func isVoiceChannel(t discordgo.ChannelType) bool {
	return t == discordgo.ChannelTypeGuildVoice || t == discordgo.ChannelTypeGuildStageVoice
}

func (o *StateOccupancy) isBot(guildID string, vs *discordgo.VoiceState) bool {
	if vs.Member != nil && vs.Member.User != nil {
		return vs.Member.User.Bot
	}
	if m, err := o.state.Member(guildID, vs.UserID); err == nil && m.User != nil {
		return m.User.Bot
	}
	return false
}

func (r *Router) onVoiceStateUpdate(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
	if vs.VoiceState == nil || vs.GuildID == "" {
		return
	}
	if vs.Member != nil && vs.Member.User != nil && vs.Member.User.Bot {
		return
	}
	before := ""
	if vs.BeforeUpdate != nil {
		before = vs.BeforeUpdate.ChannelID
	}
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	target, err := r.voice.HandleVoiceUpdate(ctx, vs.GuildID, vs.UserID, vs.ChannelID, before)
	if err != nil {
		r.log.Warn("voice: no se pudo procesar", "guild_id", vs.GuildID, "user_id", vs.UserID, "err", err)
		return
	}
	if target != "" {
		r.log.Info("voice: usuario movido", "guild_id", vs.GuildID, "user_id", vs.UserID, "channel_id", target)
	}
}

func (r *Router) onChannelDelete(s *discordgo.Session, ev *discordgo.ChannelDelete) {
	if ev.Channel == nil || ev.Type != discordgo.ChannelTypeGuildVoice {
		return
	}
	r.voice.Forget(ev.ID)
}
