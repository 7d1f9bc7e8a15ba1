package domain

import "time"

// VoiceMasterState describe un canal de voz temporal creado por el bot.
type VoiceMasterState struct {
	OwnerID          string
	GuildID          string
	VoiceChannelID   string
	TextChannelID    string
	ControlMessageID string
	BaseName         string
	Emoji            string
	Status           string
	LFM              bool
	CreatedAt        time.Time
}
