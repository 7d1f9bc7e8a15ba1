package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/acm-community-bot/internal/app/service"
)

type helpCategory struct {
	Key      string
	Emoji    string
	Name     string
	Commands []string
	Admin    bool
}

var helpCategories = []helpCategory{
	{Key: "general", Emoji: "📚", Name: "General", Commands: []string{"ping", "help"}},
	{Key: "verification", Emoji: "🔐", Name: "Verificación", Commands: []string{"verify"}},
	{Key: "tickets", Emoji: "🎫", Name: "Tickets", Commands: []string{"ticketmessage", "ticketclose"}, Admin: true},
	{Key: "communication", Emoji: "📢", Name: "Comunicación", Commands: []string{"announce", "event"}, Admin: true},
	{Key: "monitoring", Emoji: "📊", Name: "Monitoreo", Commands: []string{"metrics"}, Admin: true},
	{Key: "administration", Emoji: "👑", Name: "Administración", Commands: []string{"setup", "config-reset", "presence", "clear"}, Admin: true},
}

type commandDetail struct {
	Emoji       string
	Description string
	Permissions string
	Example     string
}

const adminOrJunta = "👑 Requiere rol de Administrador o Junta"

var commandDetails = map[string]commandDetail{
	"ping": {Emoji: "🏓", Description: "Verifica latencia del bot", Example: "`/ping` - Muestra latencia WebSocket"},
	"help": {Emoji: "❓", Description: "Muestra ayuda y comandos disponibles", Example: "`/help` - Abre el menú de ayuda interactivo"},
	"verify": {
		Emoji:       "🔐",
		Description: "Verifica tu correo con código OTP",
		Example: "`/verify start email:correo@javeriana.edu.co`\n`/verify code otp:123456`\n\n" +
			"💡 **Preferible usar correo @javeriana.edu.co** para acceso completo. " +
			"Si ya estás verificado con correo normal, puedes hacer upgrade automático a Javeriana.",
	},
	"ticketmessage": {Emoji: "🎫", Description: "Publica mensaje para crear tickets", Permissions: "👑 Requiere permiso Manage Channels", Example: "`/ticketmessage` - Publica el mensaje con reacción 🎫"},
	"ticketclose":   {Emoji: "🔒", Description: "Cierra el ticket actual", Permissions: "👑 Requiere permiso Manage Channels", Example: "`/ticketclose` - Cierra y elimina el ticket actual"},
	"announce":      {Emoji: "📢", Description: "Publica anuncios con embeds personalizados", Permissions: adminOrJunta, Example: "`/announce` - Usa el sistema interactivo paso a paso"},
	"event":         {Emoji: "📅", Description: "Crea, cancela y lista eventos programados", Permissions: adminOrJunta, Example: "`/event create name:Charla type:voice start:2025-01-19T18:00:00Z`\n`/event list`"},
	"metrics":       {Emoji: "📊", Description: "Muestra estadísticas en tiempo real", Permissions: adminOrJunta, Example: "`/metrics` - Muestra error rate, uptime, requests, etc."},
	"setup":         {Emoji: "🛠️", Description: "Configuración interactiva del servidor", Permissions: adminOrJunta, Example: "`/setup` - Sistema guiado paso a paso"},
	"config-reset":  {Emoji: "⚠️", Description: "Elimina toda la configuración del servidor", Permissions: "👑 Requiere ser Guild Owner", Example: "`/config-reset confirmacion:CONFIRMAR`"},
	"presence":      {Emoji: "👤", Description: "Configura presencia del bot", Permissions: adminOrJunta, Example: "`/presence set text:Jugando type:playing`"},
	"clear":         {Emoji: "🧹", Description: "Elimina mensajes por cantidad o tiempo", Permissions: "👑 Requiere permiso Manage Messages", Example: "`/clear value:50 unit:mensajes`"},
}

func findHelpCategory(key string) (helpCategory, bool) {
	for _, c := range helpCategories {
		if c.Key == key {
			return c, true
		}
	}
	return helpCategory{}, false
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// helpMenu arma el menú principal; las categorías de admin se ocultan a quien no lo es.
func helpMenu(isAdmin bool) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	desc := "¡Bienvenido al sistema de ayuda!\n\n" +
		"Selecciona una categoría del menú desplegable para ver los comandos disponibles.\n\n" +
		"**Categorías disponibles:**"
	var opts []discordgo.SelectMenuOption
	blocked := 0
	for _, c := range helpCategories {
		if c.Admin && !isAdmin {
			blocked += len(c.Commands)
			continue
		}
		n := len(c.Commands)
		desc += fmt.Sprintf("\n%s **%s** - %d %s", c.Emoji, c.Name, n, plural(n, "comando", "comandos"))
		opts = append(opts, discordgo.SelectMenuOption{
			Label:       c.Emoji + " " + c.Name,
			Description: "Ver comandos de " + c.Name,
			Value:       c.Key,
		})
	}
	embed := service.Embed("📚 Ayuda del Bot ACM", desc)
	if blocked > 0 {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%d %s solo para admins",
			blocked, plural(blocked, "comando adicional disponible", "comandos adicionales disponibles"))}
	}
	menu := discordgo.SelectMenu{
		MenuType:    discordgo.StringSelectMenu,
		CustomID:    "help:category",
		Placeholder: "📚 Selecciona una categoría",
		Options:     opts,
	}
	return embed, []discordgo.MessageComponent{discordgo.ActionsRow{Components: []discordgo.MessageComponent{menu}}}
}

func helpCategoryView(c helpCategory) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	fields := make([]*discordgo.MessageEmbedField, 0, len(c.Commands))
	for _, name := range c.Commands {
		d, ok := commandDetails[name]
		if !ok {
			fields = append(fields, service.Field(name, "Sin información disponible", false))
			continue
		}
		value := d.Description + "\n\n"
		if d.Permissions != "" {
			value += d.Permissions + "\n\n"
		}
		value += "**Ejemplo:**\n" + d.Example
		fields = append(fields, service.Field(fmt.Sprintf("%s **/%s**", d.Emoji, name), value, false))
	}
	embed := service.Embed(c.Emoji+" "+c.Name,
		fmt.Sprintf("Comandos disponibles en la categoría **%s**:", c.Name), fields...)
	back := discordgo.Button{CustomID: "help:back", Label: "🔙 Volver al Menú", Style: discordgo.SecondaryButton}
	return embed, []discordgo.MessageComponent{discordgo.ActionsRow{Components: []discordgo.MessageComponent{back}}}
}

// --> menú de ayuda
func (r *Router) cmdHelp(ctx context.Context, c *Ctx) error {
	cfg, _, err := r.cfg.Get(ctx, c.GuildID)
	if err != nil {
		return err
	}
	embed, comps := helpMenu(r.isAdmin(c.Session, c.Event, cfg))
	EditOriginal(c.Session, c.Event.Interaction, []*discordgo.MessageEmbed{embed}, comps)
	return nil
}

func (r *Router) handleHelpComponent(ctx context.Context, c *Ctx, id CustomID) error {
	cfg, _, err := r.cfg.Get(ctx, c.GuildID)
	if err != nil {
		return err
	}
	isAdmin := r.isAdmin(c.Session, c.Event, cfg)

	switch id.Action {
	case "category":
		vals := c.Event.MessageComponentData().Values
		if len(vals) == 0 {
			return SendEphemeral(c.Session, c.Event, "❌ Categoría no encontrada.")
		}
		cat, ok := findHelpCategory(vals[0])
		if !ok {
			return SendEphemeral(c.Session, c.Event, "❌ Categoría no encontrada.")
		}
		if cat.Admin && !isAdmin {
			return SendEphemeral(c.Session, c.Event, "❌ No tienes permisos para ver esta categoría.")
		}
		embed, comps := helpCategoryView(cat)
		return Update(c.Session, c.Event, []*discordgo.MessageEmbed{embed}, comps)

	case "back":
		embed, comps := helpMenu(isAdmin)
		return Update(c.Session, c.Event, []*discordgo.MessageEmbed{embed}, comps)
	}
	return nil
}
