// lógica de InteractionApplicationCommand: validar permisos/opciones y despachar a los servicios
package discord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"

	"github.com/jose-valero/acm-community-bot/internal/app/metrics"
	"github.com/jose-valero/acm-community-bot/internal/app/service"
)

const (
	publicTTL         = 60 * time.Second
	clearMessageLimit = 5
)

func (r *Router) commandTable() map[string]Command {
	cmds := []Command{
		{Name: "announce", Handler: r.cmdAnnounce},
		{Name: "clear", Handler: r.cmdClear},
		{Name: "config-reset", Defer: true, Handler: r.cmdConfigReset},
		{Name: "event", Defer: true, Handler: r.cmdEvent},
		{Name: "help", Defer: true, Handler: r.cmdHelp},
		{Name: "metrics", Defer: true, Handler: r.cmdMetrics},
		{Name: "ping", Handler: r.cmdPing},
		{Name: "presence", Defer: true, Handler: r.cmdPresence},
		{Name: "setup", Defer: true, Handler: r.cmdSetup},
		{Name: "ticketmessage", Defer: true, Handler: r.cmdTicketMessage},
		{Name: "ticketclose", Defer: true, Handler: r.cmdTicketClose},
		{Name: "verify", Defer: true, Handler: r.cmdVerify},
	}
	out := make(map[string]Command, len(cmds))
	for _, c := range cmds {
		out[c.Name] = c
	}
	return out
}

// --> test de latencia, se borra solo al minuto
func (r *Router) cmdPing(_ context.Context, c *Ctx) error {
	ms := c.Session.HeartbeatLatency().Milliseconds()
	if err := SendResponse(c.Session, c.Event, fmt.Sprintf("🏓 Pong! | WebSocket: %dms", ms)); err != nil {
		return err
	}
	r.deleteResponseLater(c, 0)
	return nil
}

// deleteResponseLater borra la respuesta pública a los 60s o tras n mensajes humanos (n=0: sólo tiempo).
func (r *Router) deleteResponseLater(c *Ctx, n int) {
	s, ic := c.Session, c.Event.Interaction
	log := c.Log
	r.autoDelete.Track(ic.ChannelID, publicTTL, n, func() {
		if err := s.InteractionResponseDelete(ic); err != nil {
			log.Debug("autodelete: respuesta ya borrada", "err", err)
		}
	})
}

// --> borrar mensajes por cantidad u horas/días
func (r *Router) cmdClear(ctx context.Context, c *Ctx) error {
	if !hasPerm(c.Event, discordgo.PermissionManageMessages) {
		return SendEphemeral(c.Session, c.Event, "No tienes permiso para usar este comando.")
	}
	value, _ := optInt(c.Event, "value")
	unit, _ := optStr(c.Event, "unit")
	if unit == "" {
		unit = "m"
	}

	n, err := r.clear.Clear(ctx, c.Event.ChannelID, value, unit, time.Now())
	if err != nil {
		return err
	}
	if n == 0 {
		return SendEphemeral(c.Session, c.Event, "No hay mensajes en esa ventana.")
	}
	c.Log.Info("clear", "channel_id", c.Event.ChannelID, "deleted", n, "unit", unit, "value", value)

	embed := service.Embed("🧹 Limpieza",
		fmt.Sprintf("<@%s> borró %d mensajes (%s=%d).", c.UserID, n, service.UnitLabel(unit), value))
	if err := SendResponse(c.Session, c.Event, "", embed); err != nil {
		return err
	}
	r.deleteResponseLater(c, clearMessageLimit)
	return nil
}

// --> borrar la config del servidor (solo dueño)
func (r *Router) cmdConfigReset(ctx context.Context, c *Ctx) error {
	if !r.isOwner(c.Session, c.Event) {
		r.reply(c, "❌ Solo el dueño del servidor puede eliminar la configuración.")
		return nil
	}
	if v, _ := optStr(c.Event, "confirmacion"); v != "CONFIRMAR" {
		r.reply(c, "❌ Confirmación inválida. Debes escribir exactamente `CONFIRMAR` para eliminar la configuración.")
		return nil
	}
	deleted, err := r.cfg.Reset(ctx, c.GuildID)
	if err != nil {
		return err
	}
	if !deleted {
		r.reply(c, "ℹ️ No hay configuración guardada para este servidor.")
		return nil
	}
	c.Log.Warn("config eliminada")
	embed := service.Embed("🗑️ Configuración Eliminada",
		"La configuración del servidor fue eliminada. Ejecuta `/setup` para configurarlo de nuevo.")
	embed.Color = service.ColorWarning
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "Request ID: " + c.RequestID}
	r.reply(c, "", embed)
	return nil
}

// --> eventos programados del servidor
func (r *Router) cmdEvent(ctx context.Context, c *Ctx) error {
	cfg, _, err := r.cfg.Get(ctx, c.GuildID)
	if err != nil {
		return err
	}
	if !r.requireAdmin(c, cfg) {
		return nil
	}
	sub, _ := subcmdName(c.Event)
	switch sub {
	case "create":
		in := service.EventInput{}
		in.Name, _ = optStr(c.Event, "name")
		in.Description, _ = optStr(c.Event, "description")
		in.Type, _ = optStr(c.Event, "type")
		in.Start, _ = optStr(c.Event, "start")
		in.End, _ = optStr(c.Event, "end")
		in.Location, _ = optStr(c.Event, "location")
		in.VoiceChannelID, _ = optChannel(c.Event, "voice_channel")
		in.URL, _ = optStr(c.Event, "url")
		in.Ping, _ = optBool(c.Event, "ping")
		in.Color, _ = optStr(c.Event, "color")
		msg, err := r.events.Create(ctx, c.GuildID, in)
		if err != nil {
			return err
		}
		r.reply(c, msg)

	case "cancel":
		id, _ := optStr(c.Event, "id")
		msg, err := r.events.Cancel(ctx, c.GuildID, id)
		if err != nil {
			return err
		}
		r.reply(c, msg)

	case "list":
		embed, err := r.events.List(ctx, c.GuildID)
		if err != nil {
			return err
		}
		if embed == nil {
			r.reply(c, "No hay eventos programados.")
			return nil
		}
		r.reply(c, "", embed)

	default:
		r.reply(c, "Usa `/event create`, `/event cancel` o `/event list`.")
	}
	return nil
}

// --> estadísticas de la ventana actual
func (r *Router) cmdMetrics(ctx context.Context, c *Ctx) error {
	cfg, _, err := r.cfg.Get(ctx, c.GuildID)
	if err != nil {
		return err
	}
	if !r.isAdmin(c.Session, c.Event, cfg) {
		r.reply(c, "Solo administradores pueden ver las métricas del bot.")
		return nil
	}
	limits := 0
	if r.limits != nil {
		if limits, err = r.limits.Size(ctx); err != nil {
			c.Log.Warn("metrics: tamaño de rate limits", "err", err)
		}
	}
	r.reply(c, "", metricsEmbed(r.window.Snapshot(), r.Uptime(), limits, c.Session.HeartbeatLatency()))
	return nil
}

func errorRateEmoji(rate float64) string {
	switch {
	case rate > 20:
		return "🔴"
	case rate > 10:
		return "🟡"
	default:
		return "🟢"
	}
}

func metricsEmbed(m metrics.Metrics, uptime time.Duration, limits int, ping time.Duration) *discordgo.MessageEmbed {
	cmds := "No hay datos disponibles"
	if len(m.TopErrorCommands) > 0 {
		lines := make([]string, 0, len(m.TopErrorCommands))
		for i, c := range m.TopErrorCommands {
			lines = append(lines, fmt.Sprintf("%d. **%s**: %d", i+1, c.Name, c.Count))
		}
		cmds = strings.Join(lines, "\n")
	}
	types := "No hay errores registrados"
	if len(m.TopErrorTypes) > 0 {
		lines := make([]string, 0, len(m.TopErrorTypes))
		for i, t := range m.TopErrorTypes {
			lines = append(lines, fmt.Sprintf("%d. **%s**: %d", i+1, t.Name, t.Count))
		}
		types = strings.Join(lines, "\n")
	}
	embed := service.Embed("📊 Métricas del Bot",
		fmt.Sprintf("Estadísticas de los últimos %d minutos", m.WindowMinutes),
		service.Field(errorRateEmoji(m.ErrorRate)+" Error Rate", fmt.Sprintf("%.1f%%", m.ErrorRate), true),
		service.Field("📈 Total Requests", humanize.Comma(int64(m.TotalRequests)), true),
		service.Field("❌ Total Errors", humanize.Comma(int64(m.TotalErrors)), true),
		service.Field("⏱️ Uptime", fmtUptime(uptime), true),
		service.Field("🚦 Rate Limits Active", humanize.Comma(int64(limits)), true),
		service.Field("🏓 Ping", fmt.Sprintf("%dms", ping.Milliseconds()), true),
		service.Field("🔥 Comandos con Errores", cmds, false),
		service.Field("🐛 Tipos de Errores", types, false),
	)
	embed.Timestamp = time.Now().Format(time.RFC3339)
	return embed
}

var activityTypes = map[string]discordgo.ActivityType{
	"playing":   discordgo.ActivityTypeGame,
	"listening": discordgo.ActivityTypeListening,
	"watching":  discordgo.ActivityTypeWatching,
	"competing": discordgo.ActivityTypeCompeting,
	"streaming": discordgo.ActivityTypeStreaming,
}

// presenceUpdate arma el payload; la URL sólo aplica a streaming.
func presenceUpdate(text, typ, status, url string) discordgo.UpdateStatusData {
	at, ok := activityTypes[typ]
	if !ok {
		at = discordgo.ActivityTypeGame
	}
	act := &discordgo.Activity{Name: text, Type: at}
	if at == discordgo.ActivityTypeStreaming && url != "" {
		act.URL = url
	}
	return discordgo.UpdateStatusData{Activities: []*discordgo.Activity{act}, Status: status}
}

// --> rich presence del bot
func (r *Router) cmdPresence(ctx context.Context, c *Ctx) error {
	cfg, _, err := r.cfg.Get(ctx, c.GuildID)
	if err != nil {
		return err
	}
	if !r.isAdmin(c.Session, c.Event, cfg) {
		r.reply(c, "Solo admin/junta.")
		return nil
	}
	sub, _ := subcmdName(c.Event)
	if sub == "clear" {
		if err := c.Session.UpdateStatusComplex(discordgo.UpdateStatusData{Activities: []*discordgo.Activity{}, Status: "online"}); err != nil {
			return fmt.Errorf("presence clear: %w", err)
		}
		r.reply(c, "", service.Embed("Presence", "Presence limpiado"))
		return nil
	}

	text, _ := optStr(c.Event, "text")
	typ, _ := optStr(c.Event, "type")
	if typ == "" {
		typ = "playing"
	}
	status, _ := optStr(c.Event, "status")
	if status == "" {
		status = "online"
	}
	url, _ := optStr(c.Event, "url")
	if err := c.Session.UpdateStatusComplex(presenceUpdate(text, typ, status, url)); err != nil {
		return fmt.Errorf("presence set: %w", err)
	}
	desc := fmt.Sprintf("Presence actualizado a: %s\nTipo: %s\nEstado: %s", text, typ, status)
	if url != "" {
		desc += "\nURL: " + url
	}
	r.reply(c, "", service.Embed("Presence", desc))
	return nil
}

// --> publicar el mensaje para abrir tickets
func (r *Router) cmdTicketMessage(ctx context.Context, c *Ctx) error {
	if !hasPerm(c.Event, discordgo.PermissionManageChannels) {
		r.reply(c, "🔒 Necesitas el permiso **Gestionar canales**.")
		return nil
	}
	desc, _ := optStr(c.Event, "description")
	msg, err := r.tickets.PublishTrigger(ctx, c.GuildID, desc)
	if err != nil {
		return err
	}
	r.reply(c, msg)
	return nil
}

// --> cerrar el ticket del canal actual
func (r *Router) cmdTicketClose(ctx context.Context, c *Ctx) error {
	if !hasPerm(c.Event, discordgo.PermissionManageChannels) {
		r.reply(c, "🔒 Necesitas el permiso **Gestionar canales**.")
		return nil
	}
	msg, err := r.tickets.Close(ctx, c.GuildID, c.Event.ChannelID)
	if err != nil {
		return err
	}
	// si el canal ya no existe el followup falla; sólo queda en el log
	r.reply(c, msg)
	return nil
}

// --> verificación por correo
func (r *Router) cmdVerify(ctx context.Context, c *Ctx) error {
	sub, _ := subcmdName(c.Event)
	var (
		msg string
		err error
	)
	switch sub {
	case "start":
		email, _ := optStr(c.Event, "email")
		msg, err = r.verify.Start(ctx, c.GuildID, c.UserID, email)
	case "code":
		otp, _ := optStr(c.Event, "otp")
		msg, err = r.verify.Confirm(ctx, c.GuildID, c.UserID, otp)
	default:
		msg = "Usa `/verify start` o `/verify code`."
	}
	if err != nil {
		return err
	}
	r.reply(c, msg)
	return nil
}
