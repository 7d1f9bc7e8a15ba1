package service

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/acm-community-bot/internal/domain"
	"github.com/jose-valero/acm-community-bot/internal/infra/memstore"
)

// Lo implementa internal/infra/storage (file, s3 o postgres)
type ConfigStore interface {
	Get(ctx context.Context, guildID string) (domain.GuildConfig, error)
	Upsert(ctx context.Context, cfg domain.GuildConfig) error
	Delete(ctx context.Context, guildID string) (bool, error)
}

// Lo implementan memstore.OTPStore y redisstore.OTPStore
type OTPStore interface {
	Issue(ctx context.Context, guildID, userID, email string) (string, error)
	Pending(ctx context.Context, guildID, userID string) (domain.OtpEntry, bool, error)
	Verify(ctx context.Context, guildID, userID, code string) (string, error)
}

// Lo implementan memstore.Cooldowns y redisstore.Cooldowns
type Cooldowns interface {
	Check(ctx context.Context, key string, ttl time.Duration) (memstore.CooldownResult, error)
	Clear(ctx context.Context, key string) error
}

// Lo implementa internal/adapters/mail
type Mailer interface {
	SendOTP(ctx context.Context, to, code string) error
}

// Los puertos de Discord copian las firmas de *discordgo.Session,
// así la sesión los cumple directamente y los tests usan fakes.

type RoleAPI interface {
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
}

type MessageAPI interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type ChannelAPI interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

type TicketAPI interface {
	MessageAPI
	ChannelAPI
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	MessageReactionRemove(channelID, messageID, emojiID, userID string, options ...discordgo.RequestOption) error
}

type VoiceAPI interface {
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildMemberMove(guildID string, userID string, channelID *string, options ...discordgo.RequestOption) error
}

// Occupancy lo implementa el adapter de Discord leyendo el State del gateway.
type Occupancy interface {
	// HumansIn devuelve los usuarios no-bot conectados al canal de voz.
	HumansIn(guildID, channelID string) []string
	// IsVoice es false si el canal ya no existe o no es de voz.
	IsVoice(guildID, channelID string) bool
}

type EventAPI interface {
	MessageAPI
	GuildScheduledEventCreate(guildID string, event *discordgo.GuildScheduledEventParams, options ...discordgo.RequestOption) (*discordgo.GuildScheduledEvent, error)
	GuildScheduledEventDelete(guildID, eventID string, options ...discordgo.RequestOption) error
	GuildScheduledEvents(guildID string, userCount bool, options ...discordgo.RequestOption) ([]*discordgo.GuildScheduledEvent, error)
}

type PurgeAPI interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessagesBulkDelete(channelID string, messages []string, options ...discordgo.RequestOption) error
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

type AlertAPI interface {
	MessageAPI
	UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error)
}

// Session es todo lo anterior; *discordgo.Session la cumple.
type Session interface {
	RoleAPI
	TicketAPI
	VoiceAPI
	EventAPI
	PurgeAPI
	AlertAPI
}

var _ Session = (*discordgo.Session)(nil)
