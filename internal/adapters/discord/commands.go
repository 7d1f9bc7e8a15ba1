package discord

import "github.com/bwmarrin/discordgo"

var (
	minOne       = 1.0
	permAdmin    = int64(discordgo.PermissionAdministrator)
	permMessages = int64(discordgo.PermissionManageMessages)
	permChannels = int64(discordgo.PermissionManageChannels)
	dmDisabled   = false
)

var Commands = []*discordgo.ApplicationCommand{
	{
		Name:         "announce",
		Description:  "📢 Crear un anuncio interactivo (Sistema visual paso a paso)",
		DMPermission: &dmDisabled,
	},
	{
		Name:                     "clear",
		Description:              "🧹 Elimina mensajes por cantidad o tiempo",
		DefaultMemberPermissions: &permMessages,
		DMPermission:             &dmDisabled,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "value",
				Description: "Cantidad (mensajes) o ventana (horas/días)",
				Required:    true,
				MinValue:    &minOne,
				MaxValue:    500,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "unit",
				Description: "m = mensajes, h = horas, d = dias",
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "mensajes", Value: "m"},
					{Name: "horas", Value: "h"},
					{Name: "dias", Value: "d"},
				},
			},
		},
	},
	{
		Name:         "config-reset",
		Description:  "⚠️ ELIMINA toda la configuración del servidor (solo Guild Owner)",
		DMPermission: &dmDisabled,
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "confirmacion",
			Description: `Escribe "CONFIRMAR" para eliminar la configuración`,
			Required:    true,
		}},
	},
	{
		Name:         "event",
		Description:  "Gestiona eventos (scheduled events)",
		DMPermission: &dmDisabled,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "create",
				Description: "Crear evento",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Nombre", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "description", Description: "Descripción", Required: true},
					{
						Type: discordgo.ApplicationCommandOptionString, Name: "type", Description: "Tipo: external o voice", Required: true,
						Choices: []*discordgo.ApplicationCommandOptionChoice{
							{Name: "external", Value: "external"},
							{Name: "voice", Value: "voice"},
						},
					},
					{Type: discordgo.ApplicationCommandOptionString, Name: "start", Description: "Inicio ISO 8601, sin zona = UTC (ej: 2025-01-19T18:00:00-05:00)", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "end", Description: "Fin ISO 8601, sin zona = UTC (opcional para voice, requerido en external)"},
					{Type: discordgo.ApplicationCommandOptionString, Name: "location", Description: "Ubicación (para external)"},
					{
						Type: discordgo.ApplicationCommandOptionChannel, Name: "voice_channel", Description: "Canal de voz (para voice)",
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildStageVoice},
					},
					{Type: discordgo.ApplicationCommandOptionString, Name: "url", Description: "URL opcional"},
					{Type: discordgo.ApplicationCommandOptionBoolean, Name: "ping", Description: "Mencionar rol de eventos/anuncios"},
					{Type: discordgo.ApplicationCommandOptionString, Name: "color", Description: "Color del embed (#RRGGBB)"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "cancel",
				Description: "Cancelar evento",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "id", Description: "ID del evento", Required: true},
				},
			},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "list", Description: "Lista eventos programados (máx 10)"},
		},
	},
	{
		Name:        "help",
		Description: "❓ Muestra ayuda y comandos disponibles",
	},
	{
		Name:         "metrics",
		Description:  "📊 Muestra estadísticas en tiempo real",
		DMPermission: &dmDisabled,
	},
	{
		Name:        "ping",
		Description: "🏓 Verifica latencia del bot",
	},
	{
		Name:                     "presence",
		Description:              "Configura el rich presence del bot",
		DefaultMemberPermissions: &permAdmin,
		DMPermission:             &dmDisabled,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "set",
				Description: "Establece el presence",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "text", Description: "Texto a mostrar", Required: true},
					{
						Type: discordgo.ApplicationCommandOptionString, Name: "type", Description: "Tipo de actividad",
						Choices: []*discordgo.ApplicationCommandOptionChoice{
							{Name: "Jugando", Value: "playing"},
							{Name: "Escuchando", Value: "listening"},
							{Name: "Viendo", Value: "watching"},
							{Name: "Compitiendo", Value: "competing"},
							{Name: "Transmitiendo", Value: "streaming"},
						},
					},
					{
						Type: discordgo.ApplicationCommandOptionString, Name: "status", Description: "Estado",
						Choices: []*discordgo.ApplicationCommandOptionChoice{
							{Name: "online", Value: "online"},
							{Name: "idle", Value: "idle"},
							{Name: "dnd", Value: "dnd"},
							{Name: "invisible", Value: "invisible"},
						},
					},
					{Type: discordgo.ApplicationCommandOptionString, Name: "url", Description: "URL (solo para streaming)"},
				},
			},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "clear", Description: "Limpia el presence"},
		},
	},
	{
		Name:         "setup",
		Description:  "🛠️ Configuración interactiva del bot (Sistema guiado paso a paso)",
		DMPermission: &dmDisabled,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "alert_threshold",
				Description: "Ajuste rápido: % de errores para alertar (1-100)",
				MinValue:    &minOne,
				MaxValue:    100,
			},
			{
				Type:         discordgo.ApplicationCommandOptionChannel,
				Name:         "alerts_channel",
				Description:  "Ajuste rápido: canal de alertas",
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
			},
		},
	},
	{
		Name:                     "ticketmessage",
		Description:              "Publica el mensaje de tickets (solo junta/admin)",
		DefaultMemberPermissions: &permChannels,
		DMPermission:             &dmDisabled,
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "description",
			Description: "Descripción del ticket",
		}},
	},
	{
		Name:                     "ticketclose",
		Description:              "Cierra el ticket actual (solo junta)",
		DefaultMemberPermissions: &permChannels,
		DMPermission:             &dmDisabled,
	},
	{
		Name:         "verify",
		Description:  "Verifica tu correo con un OTP",
		DMPermission: &dmDisabled,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "start",
				Description: "Inicia verificación de correo",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "email", Description: "Correo a verificar", Required: true},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "code",
				Description: "Confirma el OTP enviado a tu correo",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "otp", Description: "Código OTP", Required: true},
				},
			},
		},
	},
}
