package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/acm-community-bot/internal/app/service"
	"github.com/jose-valero/acm-community-bot/internal/domain"
	"github.com/jose-valero/acm-community-bot/internal/infra/memstore"
)

// setupSession guarda la config en edición del wizard (TTL 5 min).
type setupSession struct {
	UserID    string
	RequestID string
	Config    domain.GuildConfig
}

const (
	notConfigured = "❌ No configurado"
	skipped       = "⏭️ Sin configurar"
	vcPoolMin     = 2
	vcPoolMax     = 10
)

const sessionExpired = "❌ Esta sesión no es tuya o ha expirado. Ejecuta `/setup` nuevamente."

// campos editables por los select menus
func setupRoleField(c *domain.GuildConfig, name string) *string {
	switch name {
	case "admin":
		return &c.Roles.Admin
	case "junta":
		return &c.Roles.Junta
	case "verify":
		return &c.Roles.Verify
	case "verifyJaveriana":
		return &c.Roles.VerifyInstitutional
	case "laLiga":
		return &c.Roles.LaLiga
	case "preParciales":
		return &c.Roles.PreParciales
	case "cursos":
		return &c.Roles.Cursos
	case "notificacionesGenerales":
		return &c.Roles.NotificacionesGenerales
	}
	return nil
}

func setupChannelField(c *domain.GuildConfig, name string) *string {
	switch name {
	case "welcome":
		return &c.Channels.Welcome
	case "ticketTrigger":
		return &c.Channels.TicketTrigger
	case "announcements":
		return &c.Channels.Announcements
	case "alerts":
		return &c.Channels.Alerts
	case "vcCreate":
		return &c.Channels.VCCreate
	case "voiceCategory":
		return &c.Channels.VoiceCategory
	}
	return nil
}

func row(cs ...discordgo.MessageComponent) discordgo.ActionsRow {
	return discordgo.ActionsRow{Components: cs}
}

func button(id, label string, style discordgo.ButtonStyle) discordgo.Button {
	return discordgo.Button{CustomID: id, Label: label, Style: style}
}

func intPtr(v int) *int { return &v }

func roleSelect(uid, field, placeholder, current string, optional bool) discordgo.SelectMenu {
	m := discordgo.SelectMenu{
		MenuType:    discordgo.RoleSelectMenu,
		CustomID:    customID("setup", "role_"+field, uid),
		Placeholder: placeholder,
		MaxValues:   1,
	}
	if optional {
		m.MinValues = intPtr(0)
	}
	if current != "" {
		m.DefaultValues = []discordgo.SelectMenuDefaultValue{{ID: current, Type: discordgo.SelectMenuDefaultValueRole}}
	}
	return m
}

func channelSelect(uid, field, placeholder string, current []string, types []discordgo.ChannelType, minValues, maxValues int) discordgo.SelectMenu {
	m := discordgo.SelectMenu{
		MenuType:     discordgo.ChannelSelectMenu,
		CustomID:     customID("setup", field, uid),
		Placeholder:  placeholder,
		ChannelTypes: types,
		MinValues:    intPtr(minValues),
		MaxValues:    maxValues,
	}
	for _, id := range current {
		if id != "" {
			m.DefaultValues = append(m.DefaultValues, discordgo.SelectMenuDefaultValue{ID: id, Type: discordgo.SelectMenuDefaultValueChannel})
		}
	}
	return m
}

func one(id string) []string {
	if id == "" {
		return nil
	}
	return []string{id}
}

var textChannels = []discordgo.ChannelType{discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews}

func setupIntro(uid string) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	embed := service.Embed("🛠️ Configuración del Bot",
		"¡Bienvenido al asistente de configuración interactivo!\n\n"+
			"Te guiaré paso a paso para configurar todos los aspectos del bot.\n\n"+
			"**Pasos:**\n"+
			"1️⃣ Roles Administrativos (Admin, Junta, Verificación)\n"+
			"2️⃣ Roles de Notificaciones (La Liga, Pre-Parciales, etc.)\n"+
			"3️⃣ Canales (Bienvenida, Tickets, Anuncios, Alertas)\n"+
			"4️⃣ Sistema de Voz (VC Create, Pool)\n"+
			"5️⃣ Confirmación Final\n\n"+
			"⏱️ Tienes 5 minutos para completar la configuración.")
	return embed, []discordgo.MessageComponent{
		row(button(customID("setup", "start", uid), "🚀 Comenzar Configuración", discordgo.PrimaryButton)),
	}
}

func setupRolesStep(uid string, c domain.GuildConfig) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	embed := service.Embed("1️⃣ Roles Administrativos", "Selecciona los roles administrativos y de verificación del bot.",
		service.Field("👑 Admin", orMissing(c.Roles.Admin, mentionRole, notConfigured), true),
		service.Field("🎯 Junta", orMissing(c.Roles.Junta, mentionRole, notConfigured), true),
		service.Field("✅ Verificado (Normal)", orMissing(c.Roles.Verify, mentionRole, notConfigured), true),
		service.Field("🎓 Verificado (Javeriana)", orMissing(c.Roles.VerifyInstitutional, mentionRole, notConfigured), true),
	)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "Usa los menús desplegables para seleccionar cada rol"}
	return embed, []discordgo.MessageComponent{
		row(roleSelect(uid, "admin", "👑 Selecciona el rol Admin", c.Roles.Admin, false)),
		row(roleSelect(uid, "junta", "🎯 Selecciona el rol Junta", c.Roles.Junta, false)),
		row(roleSelect(uid, "verify", "✅ Selecciona el rol Verificado (Normal)", c.Roles.Verify, false)),
		row(roleSelect(uid, "verifyJaveriana", "🎓 Selecciona el rol Verificado (Javeriana)", c.Roles.VerifyInstitutional, false)),
		row(
			button(customID("setup", "next_notification_roles", uid), "Siguiente: Roles de Notificaciones →", discordgo.PrimaryButton),
			button(customID("setup", "cancel", uid), "Cancelar", discordgo.DangerButton),
		),
	}
}

func setupNotificationStep(uid string, c domain.GuildConfig) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	embed := service.Embed("2️⃣ Roles de Notificaciones", "Selecciona los roles para diferentes tipos de notificaciones (Todos opcionales).",
		service.Field("⚽ La Liga", orMissing(c.Roles.LaLiga, mentionRole, skipped), true),
		service.Field("📚 Pre-Parciales", orMissing(c.Roles.PreParciales, mentionRole, skipped), true),
		service.Field("📖 Cursos", orMissing(c.Roles.Cursos, mentionRole, skipped), true),
		service.Field("🔔 Notificaciones Generales", orMissing(c.Roles.NotificacionesGenerales, mentionRole, skipped), true),
	)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "Estos roles son opcionales. Puedes omitirlos si no los necesitas."}
	return embed, []discordgo.MessageComponent{
		row(roleSelect(uid, "laLiga", "⚽ Selecciona el rol La Liga (opcional)", c.Roles.LaLiga, true)),
		row(roleSelect(uid, "preParciales", "📚 Selecciona el rol Pre-Parciales (opcional)", c.Roles.PreParciales, true)),
		row(roleSelect(uid, "cursos", "📖 Selecciona el rol Cursos (opcional)", c.Roles.Cursos, true)),
		row(roleSelect(uid, "notificacionesGenerales", "🔔 Selecciona el rol Notificaciones Generales (opcional)", c.Roles.NotificacionesGenerales, true)),
		row(
			button(customID("setup", "back_roles", uid), "← Atrás: Roles Administrativos", discordgo.SecondaryButton),
			button(customID("setup", "next_channels", uid), "Siguiente: Canales →", discordgo.PrimaryButton),
			button(customID("setup", "cancel", uid), "Cancelar", discordgo.DangerButton),
		),
	}
}

func setupChannelsStep(uid string, c domain.GuildConfig) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	embed := service.Embed("3️⃣ Configuración de Canales", "Selecciona los canales principales del bot.",
		service.Field("👋 Bienvenida", orMissing(c.Channels.Welcome, mentionChannel, notConfigured), true),
		service.Field("🎫 Tickets", orMissing(c.Channels.TicketTrigger, mentionChannel, notConfigured), true),
		service.Field("📢 Anuncios", orMissing(c.Channels.Announcements, mentionChannel, notConfigured), true),
		service.Field("🔔 Alertas (Opcional)", orMissing(c.Channels.Alerts, mentionChannel, skipped), true),
	)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "Usa los menús desplegables para seleccionar cada canal"}
	return embed, []discordgo.MessageComponent{
		row(channelSelect(uid, "channel_welcome", "👋 Selecciona canal de Bienvenida", one(c.Channels.Welcome), textChannels, 1, 1)),
		row(channelSelect(uid, "channel_ticketTrigger", "🎫 Selecciona canal de Tickets", one(c.Channels.TicketTrigger), textChannels, 1, 1)),
		row(channelSelect(uid, "channel_announcements", "📢 Selecciona canal de Anuncios", one(c.Channels.Announcements), textChannels, 1, 1)),
		row(channelSelect(uid, "channel_alerts", "🔔 Selecciona canal de Alertas (opcional)", one(c.Channels.Alerts), textChannels, 0, 1)),
		row(
			button(customID("setup", "back_notification_roles", uid), "← Atrás: Roles de Notificaciones", discordgo.SecondaryButton),
			button(customID("setup", "next_voice", uid), "Siguiente: Voz →", discordgo.PrimaryButton),
			button(customID("setup", "cancel", uid), "Cancelar", discordgo.DangerButton),
		),
	}
}

func setupVoiceStep(uid string, c domain.GuildConfig) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	pool := "❌ No configurado (mínimo 2)"
	if len(c.Channels.VCPool) > 0 {
		ids := make([]string, 0, len(c.Channels.VCPool))
		for _, id := range c.Channels.VCPool {
			ids = append(ids, mentionChannel(id))
		}
		pool = strings.Join(ids, ", ")
	}
	embed := service.Embed("4️⃣ Sistema de Voz", "Configura el sistema Voice Master para canales temporales.",
		service.Field("🎤 VC Create", orMissing(c.Channels.VCCreate, mentionChannel, notConfigured), true),
		service.Field("📁 Categoría Voz", orMissing(c.Channels.VoiceCategory, mentionChannel, notConfigured), true),
		service.Field("🔄 VC Pool", pool, false),
	)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "El pool de VCs permite reciclar canales de voz existentes"}
	voice := []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice}
	category := []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory}
	return embed, []discordgo.MessageComponent{
		row(channelSelect(uid, "channel_vcCreate", "🎤 Selecciona canal VC Create", one(c.Channels.VCCreate), voice, 1, 1)),
		row(channelSelect(uid, "channel_voiceCategory", "📁 Selecciona categoría de Voz", one(c.Channels.VoiceCategory), category, 1, 1)),
		row(channelSelect(uid, "vcPool", "🔄 Selecciona canales para VC Pool (mínimo 2)", c.Channels.VCPool, voice, vcPoolMin, vcPoolMax)),
		row(
			button(customID("setup", "back_channels", uid), "← Atrás: Canales", discordgo.SecondaryButton),
			button(customID("setup", "next_confirm", uid), "Siguiente: Confirmar →", discordgo.PrimaryButton),
			button(customID("setup", "cancel", uid), "Cancelar", discordgo.DangerButton),
		),
	}
}

func setupConfirmStep(uid string, c domain.GuildConfig) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	missing := c.MissingForSetup()
	valid := len(missing) == 0

	title, desc, color, footer := "5️⃣ Confirmación Final ✅", "¡Todo listo! Revisa la configuración y confirma para guardar.",
		service.ColorSuccess, "✅ Confirmar y guardar | ❌ Cancelar"
	if !valid {
		lines := make([]string, 0, len(missing))
		for _, m := range missing {
			lines = append(lines, "❌ "+m)
		}
		title = "5️⃣ Configuración Incompleta ⚠️"
		desc = "**Faltan configuraciones requeridas:**\n" + strings.Join(lines, "\n") +
			"\n\nCompleta todos los campos requeridos antes de guardar."
		color = service.ColorWarning
		footer = "⬅️ Volver atrás para completar"
	}
	pool := "❌ (mín. 2)"
	if len(c.Channels.VCPool) >= vcPoolMin {
		pool = fmt.Sprintf("%d canales", len(c.Channels.VCPool))
	}
	embed := service.Embed(title, desc,
		service.Field("👑 Roles Administrativos", fmt.Sprintf("Admin: %s\nJunta: %s\nVerified: %s\nJaveriana: %s",
			orMissing(c.Roles.Admin, mentionRole, "❌"), orMissing(c.Roles.Junta, mentionRole, "❌"),
			orMissing(c.Roles.Verify, mentionRole, "❌"), orMissing(c.Roles.VerifyInstitutional, mentionRole, "❌")), false),
		service.Field("📢 Roles de Notificaciones", fmt.Sprintf("La Liga: %s\nPre-Parciales: %s\nCursos: %s\nNotificaciones Generales: %s",
			orMissing(c.Roles.LaLiga, mentionRole, "⏭️"), orMissing(c.Roles.PreParciales, mentionRole, "⏭️"),
			orMissing(c.Roles.Cursos, mentionRole, "⏭️"), orMissing(c.Roles.NotificacionesGenerales, mentionRole, "⏭️")), false),
		service.Field("📝 Canales", fmt.Sprintf("Bienvenida: %s\nTickets: %s\nAnuncios: %s\nAlertas: %s",
			orMissing(c.Channels.Welcome, mentionChannel, "❌"), orMissing(c.Channels.TicketTrigger, mentionChannel, "❌"),
			orMissing(c.Channels.Announcements, mentionChannel, "❌"), orMissing(c.Channels.Alerts, mentionChannel, "⏭️")), false),
		service.Field("🎤 Sistema de Voz", fmt.Sprintf("VC Create: %s\nCategoría: %s\nPool: %s",
			orMissing(c.Channels.VCCreate, mentionChannel, "❌"), orMissing(c.Channels.VoiceCategory, mentionChannel, "❌"), pool), false),
		service.Field("⚙️ Avanzado", fmt.Sprintf("Threshold Alertas: %d%%", c.AlertThresholdOrDefault()), false),
	)
	embed.Color = color
	embed.Footer = &discordgo.MessageEmbedFooter{Text: footer}

	confirm := button(customID("setup", "confirm", uid), "✅ Confirmar y Guardar", discordgo.SuccessButton)
	confirm.Disabled = !valid
	return embed, []discordgo.MessageComponent{
		row(
			button(customID("setup", "back_voice", uid), "← Atrás: Voz", discordgo.SecondaryButton),
			confirm,
			button(customID("setup", "cancel", uid), "❌ Cancelar", discordgo.DangerButton),
		),
	}
}

type setupView func(uid string, c domain.GuildConfig) (*discordgo.MessageEmbed, []discordgo.MessageComponent)

var setupSteps = map[string]setupView{
	"start":                   setupRolesStep,
	"back_roles":              setupRolesStep,
	"next_notification_roles": setupNotificationStep,
	"back_notification_roles": setupNotificationStep,
	"next_channels":           setupChannelsStep,
	"back_channels":           setupChannelsStep,
	"next_voice":              setupVoiceStep,
	"back_voice":              setupVoiceStep,
	"next_confirm":            setupConfirmStep,
}

// stepForSelect: vista a re-renderizar después de elegir en un select.
func stepForSelect(action string) setupView {
	switch action {
	case "role_admin", "role_junta", "role_verify", "role_verifyJaveriana":
		return setupRolesStep
	case "role_laLiga", "role_preParciales", "role_cursos", "role_notificacionesGenerales":
		return setupNotificationStep
	case "channel_vcCreate", "channel_voiceCategory", "vcPool":
		return setupVoiceStep
	default:
		return setupChannelsStep
	}
}

// applySetupSelect escribe los valores elegidos en la config en edición.
func applySetupSelect(c *domain.GuildConfig, action string, values []string) bool {
	first := ""
	if len(values) > 0 {
		first = values[0]
	}
	switch {
	case action == "vcPool":
		if len(values) > vcPoolMax {
			values = values[:vcPoolMax]
		}
		c.Channels.VCPool = append([]string(nil), values...)
		return true
	case strings.HasPrefix(action, "role_"):
		if f := setupRoleField(c, strings.TrimPrefix(action, "role_")); f != nil {
			*f = first
			return true
		}
	case strings.HasPrefix(action, "channel_"):
		if f := setupChannelField(c, strings.TrimPrefix(action, "channel_")); f != nil {
			*f = first
			return true
		}
	}
	return false
}

// --> wizard de configuración, o patch rápido si vienen opciones
func (r *Router) cmdSetup(ctx context.Context, c *Ctx) error {
	cfg, found, err := r.cfg.Get(ctx, c.GuildID)
	if err != nil {
		return err
	}
	if !r.requireAdmin(c, cfg) {
		return nil
	}

	threshold, hasThreshold := optInt(c.Event, "alert_threshold")
	alerts, hasAlerts := optChannel(c.Event, "alerts_channel")
	if hasThreshold || hasAlerts {
		if !found {
			r.reply(c, "⚠️ Primero completa `/setup` sin opciones para crear la configuración.")
			return nil
		}
		var p service.ConfigPatch
		if hasThreshold {
			p.AlertThreshold = &threshold
		}
		if hasAlerts {
			p.AlertsChannel = &alerts
		}
		msg, err := r.cfg.Patch(ctx, c.GuildID, p)
		if err != nil {
			return err
		}
		c.Log.Info("setup: patch aplicado", "alert_threshold", hasThreshold, "alerts_channel", hasAlerts)
		r.reply(c, msg)
		return nil
	}

	r.setups.Put(memstore.SessionKey(c.GuildID, c.UserID), setupSession{
		UserID:    c.UserID,
		RequestID: c.RequestID,
		Config:    cfg.Clone(),
	})
	c.Log.Info("setup: wizard iniciado")
	embed, comps := setupIntro(c.UserID)
	EditOriginal(c.Session, c.Event.Interaction, []*discordgo.MessageEmbed{embed}, comps)
	return nil
}

func (r *Router) handleSetupComponent(ctx context.Context, c *Ctx, id CustomID) error {
	key := memstore.SessionKey(c.GuildID, c.UserID)
	sess, ok := r.setups.Get(key)
	if id.UserID != c.UserID || !ok {
		return SendEphemeral(c.Session, c.Event, sessionExpired)
	}

	render := func(v setupView, cfg domain.GuildConfig) error {
		embed, comps := v(c.UserID, cfg)
		return Update(c.Session, c.Event, []*discordgo.MessageEmbed{embed}, comps)
	}

	if c.Event.Type == discordgo.InteractionMessageComponent &&
		c.Event.MessageComponentData().ComponentType != discordgo.ButtonComponent {
		values := c.Event.MessageComponentData().Values
		var cfg domain.GuildConfig
		if !r.setups.Update(key, func(s *setupSession) {
			applySetupSelect(&s.Config, id.Action, values)
			cfg = s.Config.Clone()
		}) {
			return SendEphemeral(c.Session, c.Event, sessionExpired)
		}
		return render(stepForSelect(id.Action), cfg)
	}

	if view, ok := setupSteps[id.Action]; ok {
		return render(view, sess.Config)
	}

	switch id.Action {
	case "confirm":
		if missing := sess.Config.MissingForSetup(); len(missing) > 0 {
			return render(setupConfirmStep, sess.Config)
		}
		if err := r.cfg.Save(ctx, sess.Config); err != nil {
			c.Log.Error("setup: no se pudo guardar", "err", err)
			return SendEphemeral(c.Session, c.Event, "❌ Error al guardar la configuración. Intenta nuevamente.")
		}
		r.setups.Delete(key)
		c.Log.Info("setup: configuración guardada", "setup_request_id", sess.RequestID)
		return Update(c.Session, c.Event, []*discordgo.MessageEmbed{setupSavedEmbed(sess)}, nil)

	case "cancel":
		r.setups.Delete(key)
		c.Log.Info("setup: cancelado")
		embed := service.Embed("❌ Configuración Cancelada", "El proceso de configuración ha sido cancelado. Los cambios no se guardaron.")
		embed.Color = service.ColorCritical
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "Ejecuta /setup nuevamente para reiniciar la configuración"}
		return Update(c.Session, c.Event, []*discordgo.MessageEmbed{embed}, nil)
	}
	return SendEphemeral(c.Session, c.Event, "❌ Acción desconocida.")
}

func setupSavedEmbed(sess setupSession) *discordgo.MessageEmbed {
	cfg := sess.Config
	roles := 0
	for _, id := range []string{cfg.Roles.Admin, cfg.Roles.Junta, cfg.Roles.Verify, cfg.Roles.VerifyInstitutional,
		cfg.Roles.LaLiga, cfg.Roles.PreParciales, cfg.Roles.Cursos, cfg.Roles.NotificacionesGenerales} {
		if id != "" {
			roles++
		}
	}
	chans := 0
	for _, id := range []string{cfg.Channels.Welcome, cfg.Channels.TicketTrigger, cfg.Channels.Announcements,
		cfg.Channels.Alerts, cfg.Channels.VCCreate, cfg.Channels.VoiceCategory} {
		if id != "" {
			chans++
		}
	}
	ref := sess.RequestID
	if len(ref) > 8 {
		ref = ref[:8]
	}
	embed := service.Embed("✅ Configuración Guardada", "¡La configuración del bot se ha guardado exitosamente!",
		service.Field("📊 Resumen", fmt.Sprintf("• %d roles configurados\n• %d canales configurados\n• %d canales en VC Pool",
			roles, chans, len(cfg.Channels.VCPool)), false),
	)
	embed.Color = service.ColorSuccess
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "Configuración completada • Request ID: " + ref}
	return embed
}
