package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

type Announcement struct {
	Title   string
	Message string
	Color   int
	Image   string
	Roles   []string
}

// Embed arma el embed del anuncio (también para la vista previa).
func (a Announcement) Embed() *discordgo.MessageEmbed {
	e := Embed(a.Title, a.Message)
	if a.Color != 0 {
		e.Color = a.Color
	}
	if a.Image != "" {
		e.Image = &discordgo.MessageEmbedImage{URL: a.Image}
	}
	return e
}

func (a Announcement) Mentions() string {
	parts := make([]string, 0, len(a.Roles))
	for _, id := range a.Roles {
		parts = append(parts, "<@&"+id+">")
	}
	return strings.Join(parts, " ")
}

type AnnounceService struct {
	api MessageAPI
}

func NewAnnounceService(api MessageAPI) *AnnounceService { return &AnnounceService{api: api} }

// Publish envía primero las menciones (si hay) y luego el embed.
func (s *AnnounceService) Publish(_ context.Context, channelID string, a Announcement) error {
	if len(a.Roles) > 0 {
		_, err := s.api.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Content:         a.Mentions(),
			AllowedMentions: &discordgo.MessageAllowedMentions{Roles: a.Roles},
		})
		if err != nil {
			return fmt.Errorf("menciones: %w", err)
		}
	}
	if _, err := s.api.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{a.Embed()},
	}); err != nil {
		return fmt.Errorf("anuncio: %w", err)
	}
	return nil
}
