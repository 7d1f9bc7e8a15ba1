package discord

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/jose-valero/acm-community-bot/internal/app/metrics"
	"github.com/jose-valero/acm-community-bot/internal/app/service"
	"github.com/jose-valero/acm-community-bot/internal/domain"
	"github.com/jose-valero/acm-community-bot/internal/infra/memstore"
	"github.com/jose-valero/acm-community-bot/internal/infra/storage"
)

const (
	handlerTimeout = 12 * time.Second
	setupTTL       = 5 * time.Minute
	announceTTL    = 15 * time.Minute
)

type Deps struct {
	Config   *service.ConfigService
	Verify   *service.VerifyService
	Tickets  *service.TicketService
	Voice    *service.VoiceService
	Events   *service.EventService
	Clear    *service.ClearService
	Announce *service.AnnounceService
	Alerts   *service.AlertService
	Metrics  *metrics.Window
	Limits   Limiter
	// Membership es opcional (sólo el backend postgres la implementa)
	Membership   storage.Membership
	AdminRoleIDs []string
}

type Router struct {
	s       *discordgo.Session
	guildID string
	log     *slog.Logger

	cfg          *service.ConfigService
	verify       *service.VerifyService
	tickets      *service.TicketService
	voice        *service.VoiceService
	events       *service.EventService
	clear        *service.ClearService
	announce     *service.AnnounceService
	alerts       *service.AlertService
	window       *metrics.Window
	limits       Limiter
	membership   storage.Membership
	adminRoleIDs []string

	commands     map[string]Command
	components   map[string]ComponentHandler
	clickLimiter *userLimiter
	setups       *memstore.Sessions[setupSession]
	announces    *memstore.Sessions[announceSession]
	autoDelete   *autoDeleter
	readyAt      atomic.Int64
}

func NewRouter(s *discordgo.Session, guildID string, d Deps, log *slog.Logger) *Router {
	r := &Router{
		s:            s,
		guildID:      guildID,
		log:          log,
		cfg:          d.Config,
		verify:       d.Verify,
		tickets:      d.Tickets,
		voice:        d.Voice,
		events:       d.Events,
		clear:        d.Clear,
		announce:     d.Announce,
		alerts:       d.Alerts,
		window:       d.Metrics,
		limits:       d.Limits,
		membership:   d.Membership,
		adminRoleIDs: d.AdminRoleIDs,
		clickLimiter: newUserLimiter(d.Limits, time.Second),
		autoDelete:   newAutoDeleter(),
	}
	r.setups = memstore.NewSessions[setupSession](setupTTL, func(key string) {
		log.Info("setup: sesión expirada", "session", key)
	})
	r.announces = memstore.NewSessions[announceSession](announceTTL, func(key string) {
		log.Info("announce: sesión expirada", "session", key)
	})
	r.commands = r.commandTable()
	r.components = map[string]ComponentHandler{
		"setup":    r.handleSetupComponent,
		"announce": r.handleAnnounceComponent,
		"help":     r.handleHelpComponent,
	}
	return r
}

// Register sobreescribe el set completo de comandos en el guild destino.
func (r *Router) Register() error {
	appID := r.s.State.User.ID
	cmds, err := r.s.ApplicationCommandBulkOverwrite(appID, r.guildID, Commands)
	if err != nil {
		return fmt.Errorf("registrar comandos: %w", err)
	}
	r.log.Info("comandos registrados", "guild_id", r.guildID, "count", len(cmds))
	return nil
}

// Uptime desde el último Ready.
func (r *Router) Uptime() time.Duration {
	at := r.readyAt.Load()
	if at == 0 {
		return 0
	}
	return time.Since(time.Unix(0, at))
}

func (r *Router) Handlers() {
	r.s.AddHandler(r.onReady)
	r.s.AddHandler(r.onInteraction)
	r.s.AddHandler(r.onVoiceStateUpdate)
	r.s.AddHandler(r.onReactionAdd)
	r.s.AddHandler(r.onMemberAdd)
	r.s.AddHandler(r.onMessageCreate)
	r.s.AddHandler(r.onChannelDelete)
	r.s.AddHandler(r.onGuildCreate)
	r.s.AddHandler(r.onGuildDelete)
}

func (r *Router) onReady(s *discordgo.Session, ev *discordgo.Ready) {
	r.readyAt.Store(time.Now().UnixNano())
	r.log.Info("conectado", "user", ev.User.Username, "guilds", len(ev.Guilds))
	if r.membership != nil {
		ids := make([]string, 0, len(ev.Guilds))
		for _, g := range ev.Guilds {
			ids = append(ids, g.ID)
		}
		go r.reportPendingSetup(ids)
	}
}

func (r *Router) reportPendingSetup(ids []string) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	found, err := r.membership.GetMany(ctx, ids)
	if err != nil {
		r.log.Warn("configs al arrancar", "err", err)
		return
	}
	if pending := withoutConfig(ids, found); len(pending) > 0 {
		r.log.Info("servidores sin /setup", "count", len(pending), "guild_ids", pending)
	}
}

func withoutConfig(ids []string, found map[string]domain.GuildConfig) []string {
	var out []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func interactionName(ic *discordgo.InteractionCreate) string {
	switch ic.Type {
	case discordgo.InteractionApplicationCommand:
		return ic.ApplicationCommandData().Name
	case discordgo.InteractionMessageComponent:
		id := parseCustomID(ic.MessageComponentData().CustomID)
		return id.Prefix + ":" + id.Action
	case discordgo.InteractionModalSubmit:
		id := parseCustomID(ic.ModalSubmitData().CustomID)
		return id.Prefix + ":" + id.Action
	default:
		return "unknown"
	}
}

func (r *Router) onInteraction(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	if ic.Type == discordgo.InteractionPing || ic.Type == discordgo.InteractionApplicationCommandAutocomplete {
		return
	}
	if ic.GuildID == "" || ic.Member == nil || ic.Member.User == nil {
		_ = SendEphemeral(s, ic, "Este bot sólo funciona dentro de un servidor.")
		return
	}

	name := interactionName(ic)
	c := &Ctx{
		Session:   s,
		Event:     ic,
		GuildID:   ic.GuildID,
		UserID:    ic.Member.User.ID,
		RequestID: uuid.NewString(),
	}
	c.Log = r.log.With("request_id", c.RequestID, "guild_id", c.GuildID, "user_id", c.UserID, "command", name)
	c.Log.Info("interacción", "type", ic.Type.String())

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	done := step(c.Log, name)
	err := r.dispatch(ctx, c)
	done()

	r.window.Record(err != nil, name, errType(err))
	if err == nil {
		return
	}
	c.Log.Error("error en handler", "err", err)
	r.reply(c, fmt.Sprintf("❌ Ocurrió un error inesperado. (ref: %s)", c.Ref()))
	go r.checkErrorRate(ic.GuildID)
}

// dispatch corre el handler; un panic se convierte en error.
func (r *Router) dispatch(ctx context.Context, c *Ctx) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			c.Log.Error("panic en handler", "panic", rec, "stack", string(debug.Stack()))
			err = panicError{v: rec}
		}
	}()

	ic := c.Event
	switch ic.Type {
	case discordgo.InteractionApplicationCommand:
		cmd, ok := r.commands[ic.ApplicationCommandData().Name]
		if !ok {
			c.Log.Warn("comando desconocido")
			r.reply(c, "Comando desconocido.")
			return nil
		}
		if cmd.Defer {
			_ = DeferEphemeral(c.Session, ic)
		}
		return cmd.Handler(ctx, c)

	case discordgo.InteractionMessageComponent, discordgo.InteractionModalSubmit:
		return r.handleComponent(ctx, c)
	}
	return nil
}

func (r *Router) reply(c *Ctx, msg string, embeds ...*discordgo.MessageEmbed) {
	ReplyEphemeral(c.Session, c.Event, msg, embeds...)
}

func (r *Router) checkErrorRate(guildID string) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	if _, err := r.alerts.CheckErrorRate(ctx, guildID); err != nil {
		r.log.Warn("alerta de errores", "guild_id", guildID, "err", err)
	}
}
