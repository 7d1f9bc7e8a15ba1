package discord

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

type Ctx struct {
	Log       *slog.Logger
	Session   *discordgo.Session
	Event     *discordgo.InteractionCreate
	GuildID   string
	UserID    string
	RequestID string
}

// Ref es el prefijo corto del request ID que se muestra al usuario.
func (c *Ctx) Ref() string {
	if len(c.RequestID) < 8 {
		return c.RequestID
	}
	return c.RequestID[:8]
}

type CommandHandler func(ctx context.Context, c *Ctx) error

type Command struct {
	Name string
	// Defer responde con un defer efímero antes de correr el handler (trabajos >3s)
	Defer   bool
	Handler CommandHandler
}

type ComponentHandler func(ctx context.Context, c *Ctx, id CustomID) error

// CustomID: usamos "prefijo:acción:usuario" para enrutar (ej: "setup:next_voice:123")
type CustomID struct {
	Prefix string
	Action string
	UserID string
}
