package service

import (
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	ColorBrand    = 0x5865F2
	ColorSuccess  = 0x22C55E
	ColorWarning  = 0xF59E0B
	ColorCritical = 0xEF4444
)

// Embed arma un embed con el color de marca.
func Embed(title, description string, fields ...*discordgo.MessageEmbedField) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       ColorBrand,
		Fields:      fields,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

func Field(name, value string, inline bool) *discordgo.MessageEmbedField {
	return &discordgo.MessageEmbedField{Name: name, Value: value, Inline: inline}
}
