package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/acm-community-bot/internal/app/service"
	"github.com/jose-valero/acm-community-bot/internal/infra/memstore"
)

type announceSession struct {
	UserID    string
	RequestID string
	ChannelID string
	ColorHex  string
	Draft     service.Announcement
	// Preview es la interacción cuya respuesta es el preview; su token permite editarlo
	Preview *discordgo.Interaction
}

type presetColor struct {
	Label string
	Hex   string
}

var presetColors = []presetColor{
	{"🔴 Rojo (Importante)", "#EF4444"},
	{"🟡 Amarillo (Advertencia)", "#F59E0B"},
	{"🟢 Verde (Éxito)", "#10B981"},
	{"🔵 Azul (Información)", "#3B82F6"},
	{"🟣 Morado (Evento)", "#8B5CF6"},
	{"🟠 Naranja (Alerta)", "#F97316"},
	{"⚫ Negro (Formal)", "#1F2937"},
	{"⚪ Blanco Discord", "#5865F2"},
}

const (
	announceExpired = "❌ Esta sesión no es tuya o ha expirado. Ejecuta `/announce` nuevamente."
	maxTitleLen     = 256
	maxMessageLen   = 4000
	maxImageURLLen  = 500
)

func announceTextInputs(d service.Announcement) []discordgo.TextInput {
	return []discordgo.TextInput{
		{
			CustomID:    "title",
			Label:       "Título del Anuncio",
			Style:       discordgo.TextInputShort,
			Placeholder: "Ej: Importante - Leer",
			Value:       d.Title,
			MaxLength:   maxTitleLen,
		},
		{
			CustomID:    "message",
			Label:       "Mensaje del Anuncio",
			Style:       discordgo.TextInputParagraph,
			Placeholder: "Escribe el contenido del anuncio aquí...",
			Value:       d.Message,
			Required:    true,
			MaxLength:   maxMessageLen,
		},
	}
}

func announcePreview(sess announceSession) *discordgo.MessageEmbed {
	d := sess.Draft
	roles := "Ninguno"
	if len(d.Roles) > 0 {
		roles = d.Mentions()
	}
	color := sess.ColorHex
	if color == "" {
		color = "Default (#5865F2)"
	}
	title := d.Title
	if title == "" {
		title = "Sin título"
	}
	msg := d.Message
	if msg == "" {
		msg = "Sin mensaje"
	}
	embed := service.Embed("📢 Preview del Anuncio", "Así es como se verá tu anuncio. Revisa antes de publicar.",
		service.Field("📝 Título", title, false),
		service.Field("💬 Mensaje", truncate(msg, 1024), false),
		service.Field("🎨 Color", color, true),
		service.Field("🔔 Menciones", roles, true),
	)
	if d.Color != 0 {
		embed.Color = d.Color
	}
	if d.Image != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: d.Image}
	}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "Haz clic en los botones para editar o publicar"}
	return embed
}

func announceComponents(uid string, sess announceSession, roles []discordgo.SelectMenuOption) []discordgo.MessageComponent {
	colors := make([]discordgo.SelectMenuOption, 0, len(presetColors))
	for _, c := range presetColors {
		colors = append(colors, discordgo.SelectMenuOption{Label: c.Label, Value: c.Hex, Default: c.Hex == sess.ColorHex})
	}
	out := []discordgo.MessageComponent{
		row(discordgo.SelectMenu{
			MenuType:    discordgo.StringSelectMenu,
			CustomID:    customID("announce", "color", uid),
			Placeholder: "🎨 Selecciona un color",
			Options:     colors,
		}),
	}
	if len(roles) > 0 {
		selected := map[string]bool{}
		for _, id := range sess.Draft.Roles {
			selected[id] = true
		}
		for i := range roles {
			roles[i].Default = selected[roles[i].Value]
		}
		out = append(out, row(discordgo.SelectMenu{
			MenuType:    discordgo.StringSelectMenu,
			CustomID:    customID("announce", "roles", uid),
			Placeholder: "🔔 Selecciona roles a mencionar (opcional)",
			MinValues:   intPtr(0),
			MaxValues:   len(roles),
			Options:     roles,
		}))
	}
	return append(out, row(
		button(customID("announce", "edit", uid), "✏️ Editar Texto", discordgo.SecondaryButton),
		button(customID("announce", "image", uid), "🖼️ Imagen", discordgo.SecondaryButton),
		button(customID("announce", "publish", uid), "📢 Publicar", discordgo.SuccessButton),
		button(customID("announce", "cancel", uid), "❌ Cancelar", discordgo.DangerButton),
	))
}

// notificationOptions: roles de notificación configurados para el select de menciones.
func (r *Router) notificationOptions(ctx context.Context, guildID string) ([]discordgo.SelectMenuOption, error) {
	cfg, _, err := r.cfg.Get(ctx, guildID)
	if err != nil {
		return nil, err
	}
	var out []discordgo.SelectMenuOption
	for _, lr := range cfg.NotificationRoles() {
		out = append(out, discordgo.SelectMenuOption{Label: lr.Label, Value: lr.ID})
	}
	return out, nil
}

// --> anuncio interactivo: modal -> preview -> publicar
func (r *Router) cmdAnnounce(ctx context.Context, c *Ctx) error {
	cfg, _, err := r.cfg.Get(ctx, c.GuildID)
	if err != nil {
		return err
	}
	if !r.isAdmin(c.Session, c.Event, cfg) {
		return SendEphemeral(c.Session, c.Event, "❌ Solo administradores pueden crear anuncios.")
	}
	if cfg.Channels.Announcements == "" {
		return SendEphemeral(c.Session, c.Event, "❌ Canal de anuncios no configurado. Usa `/setup` primero.")
	}
	r.announces.Put(memstore.SessionKey(c.GuildID, c.UserID), announceSession{
		UserID:    c.UserID,
		RequestID: c.RequestID,
		ChannelID: cfg.Channels.Announcements,
	})
	c.Log.Info("announce: sesión iniciada")
	return ShowModal(c.Session, c.Event, customID("announce", "modal", c.UserID), "📢 Crear Anuncio",
		announceTextInputs(service.Announcement{})...)
}

func (r *Router) handleAnnounceComponent(ctx context.Context, c *Ctx, id CustomID) error {
	key := memstore.SessionKey(c.GuildID, c.UserID)
	sess, ok := r.announces.Get(key)
	if id.UserID != c.UserID || !ok {
		return SendEphemeral(c.Session, c.Event, announceExpired)
	}

	view := func(s announceSession) ([]*discordgo.MessageEmbed, []discordgo.MessageComponent, error) {
		roles, err := r.notificationOptions(ctx, c.GuildID)
		if err != nil {
			return nil, nil, err
		}
		return []*discordgo.MessageEmbed{announcePreview(s)}, announceComponents(c.UserID, s, roles), nil
	}

	switch id.Action {
	case "modal":
		data := c.Event.ModalSubmitData()
		title := truncate(modalValue(data, "title"), maxTitleLen)
		msg := modalValue(data, "message")
		r.announces.Update(key, func(s *announceSession) {
			s.Draft.Title = title
			s.Draft.Message = msg
			sess = *s
		})
		c.Log.Info("announce: texto recibido", "has_title", title != "", "message_len", len(msg))
		embeds, comps, err := view(sess)
		if err != nil {
			return err
		}
		if sess.Preview != nil {
			return Update(c.Session, c.Event, embeds, comps)
		}
		if err := SendEphemeralView(c.Session, c.Event, embeds, comps); err != nil {
			return err
		}
		r.announces.Update(key, func(s *announceSession) { s.Preview = c.Event.Interaction })
		return nil

	case "imageModal":
		raw := modalValue(c.Event.ModalSubmitData(), "imageUrl")
		if raw != "" && !validImageURL(raw) {
			return SendEphemeral(c.Session, c.Event, "❌ URL de imagen inválida. Debe ser una URL completa (ej: https://ejemplo.com/imagen.png)")
		}
		r.announces.Update(key, func(s *announceSession) {
			s.Draft.Image = raw
			sess = *s
		})
		c.Log.Info("announce: imagen", "has_image", raw != "")
		reply := "✅ Imagen removida."
		if raw != "" {
			reply = "✅ Imagen configurada. Revisa el preview."
		}
		if err := SendEphemeral(c.Session, c.Event, reply); err != nil {
			return err
		}
		if sess.Preview == nil {
			c.Log.Warn("announce: no hay preview para actualizar")
			return nil
		}
		EditOriginal(c.Session, sess.Preview, []*discordgo.MessageEmbed{announcePreview(sess)}, nil)
		return nil

	case "color":
		vals := c.Event.MessageComponentData().Values
		if len(vals) > 0 {
			hex := vals[0]
			color, _ := service.ParseHexColor(hex)
			r.announces.Update(key, func(s *announceSession) {
				s.ColorHex = hex
				s.Draft.Color = color
				sess = *s
			})
		}
		embeds, comps, err := view(sess)
		if err != nil {
			return err
		}
		return Update(c.Session, c.Event, embeds, comps)

	case "roles":
		vals := c.Event.MessageComponentData().Values
		r.announces.Update(key, func(s *announceSession) {
			s.Draft.Roles = append([]string(nil), vals...)
			sess = *s
		})
		embeds, comps, err := view(sess)
		if err != nil {
			return err
		}
		return Update(c.Session, c.Event, embeds, comps)

	case "edit":
		return ShowModal(c.Session, c.Event, customID("announce", "modal", c.UserID), "✏️ Editar Anuncio",
			announceTextInputs(sess.Draft)...)

	case "image":
		return ShowModal(c.Session, c.Event, customID("announce", "imageModal", c.UserID), "🖼️ Imagen del Anuncio",
			discordgo.TextInput{
				CustomID:    "imageUrl",
				Label:       "URL de la Imagen",
				Style:       discordgo.TextInputShort,
				Placeholder: "https://ejemplo.com/imagen.png",
				Value:       sess.Draft.Image,
				MaxLength:   maxImageURLLen,
			})

	case "publish":
		return r.publishAnnouncement(ctx, c, key, sess)

	case "cancel":
		r.announces.Delete(key)
		c.Log.Info("announce: cancelado")
		embed := service.Embed("❌ Anuncio Cancelado", "El anuncio ha sido cancelado. No se publicó nada.")
		embed.Color = service.ColorCritical
		return Update(c.Session, c.Event, []*discordgo.MessageEmbed{embed}, nil)
	}
	return SendEphemeral(c.Session, c.Event, "❌ Acción desconocida.")
}

func (r *Router) publishAnnouncement(ctx context.Context, c *Ctx, key string, sess announceSession) error {
	d := sess.Draft
	if strings.TrimSpace(d.Message) == "" {
		return SendEphemeral(c.Session, c.Event, "❌ No puedes publicar un anuncio sin mensaje.")
	}
	if d.Title == "" {
		d.Title = "Anuncio"
	}
	if err := r.announce.Publish(ctx, sess.ChannelID, d); err != nil {
		c.Log.Error("announce: publicar", "channel_id", sess.ChannelID, "err", err)
		return SendEphemeral(c.Session, c.Event, "❌ Error al publicar el anuncio. Verifica que el bot tenga permisos en el canal.")
	}
	r.announces.Delete(key)
	c.Log.Info("announce: publicado", "channel_id", sess.ChannelID, "roles", len(d.Roles))
	embed := service.Embed("✅ Anuncio Publicado",
		fmt.Sprintf("Tu anuncio ha sido publicado exitosamente en %s.", mentionChannel(sess.ChannelID)))
	embed.Color = service.ColorSuccess
	return Update(c.Session, c.Event, []*discordgo.MessageEmbed{embed}, nil)
}
