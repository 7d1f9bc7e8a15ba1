package domain

import "strings"

// DefaultAlertThreshold es el % de errores a partir del cual se alerta.
const DefaultAlertThreshold = 20

// GuildConfig es la configuración persistida de un servidor.
// Los tags json mantienen el formato del documento { "guilds": { ... } }.
type GuildConfig struct {
	GuildID            string                `json:"guildId"`
	Roles              GuildRoles            `json:"roles"`
	Channels           GuildChannels         `json:"channels"`
	TicketMessageID    string                `json:"ticketMessageId,omitempty"`
	OpenTickets        map[string]OpenTicket `json:"openTickets"`        // userID -> ticket
	VerificationEmails map[string]string     `json:"verificationEmails"` // email -> userID
	AlertThreshold     int                   `json:"alertThreshold,omitempty"`
}

type GuildRoles struct {
	Admin               string `json:"admin,omitempty"`
	Junta               string `json:"junta,omitempty"`
	Verify              string `json:"verify,omitempty"`
	VerifyInstitutional string `json:"verifyJaveriana,omitempty"`
	EventPing           string `json:"eventPing,omitempty"`

	LaLiga                  string `json:"laLiga,omitempty"`
	PreParciales            string `json:"preParciales,omitempty"`
	Cursos                  string `json:"cursos,omitempty"`
	NotificacionesGenerales string `json:"notificacionesGenerales,omitempty"`
}

type GuildChannels struct {
	Welcome       string   `json:"welcome,omitempty"`
	TicketTrigger string   `json:"ticketTrigger,omitempty"`
	Announcements string   `json:"announcements,omitempty"`
	Alerts        string   `json:"alerts,omitempty"`
	VCCreate      string   `json:"vcCreate,omitempty"`
	VCPool        []string `json:"vcPool"`
	VoiceCategory string   `json:"voiceCategory,omitempty"`
}

type OpenTicket struct {
	CategoryID string `json:"categoryId"`
	TextID     string `json:"textId,omitempty"`
	VoiceID    string `json:"voiceId,omitempty"`
}

// LabeledRole es un rol con etiqueta para menús.
type LabeledRole struct {
	Label string
	ID    string
}

// NewGuildConfig arma una config vacía con los mapas inicializados.
func NewGuildConfig(guildID string) GuildConfig {
	return GuildConfig{
		GuildID:            guildID,
		OpenTickets:        map[string]OpenTicket{},
		VerificationEmails: map[string]string{},
		AlertThreshold:     DefaultAlertThreshold,
	}
}

func (c GuildConfig) AlertThresholdOrDefault() int {
	if c.AlertThreshold <= 0 {
		return DefaultAlertThreshold
	}
	return c.AlertThreshold
}

// NotificationRoles devuelve los roles de notificación configurados, sin duplicados.
func (c GuildConfig) NotificationRoles() []LabeledRole {
	cands := []LabeledRole{
		{Label: "⚽ La Liga", ID: c.Roles.LaLiga},
		{Label: "📚 Pre-Parciales", ID: c.Roles.PreParciales},
		{Label: "📖 Cursos", ID: c.Roles.Cursos},
		{Label: "🔔 Notificaciones Generales", ID: c.Roles.NotificacionesGenerales},
	}
	seen := map[string]struct{}{}
	out := make([]LabeledRole, 0, len(cands))
	for _, r := range cands {
		if r.ID == "" {
			continue
		}
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// MissingForSetup lista los campos obligatorios que faltan para guardar /setup.
func (c GuildConfig) MissingForSetup() []string {
	var missing []string
	add := func(v, name string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	add(c.Roles.Admin, "Rol Admin")
	add(c.Roles.Junta, "Rol Junta")
	add(c.Roles.Verify, "Rol Verificado")
	add(c.Roles.VerifyInstitutional, "Rol Javeriana")
	add(c.Channels.Welcome, "Canal Bienvenida")
	add(c.Channels.TicketTrigger, "Canal Tickets")
	add(c.Channels.Announcements, "Canal Anuncios")
	add(c.Channels.VCCreate, "Canal VC Create")
	add(c.Channels.VoiceCategory, "Categoría Voz")
	if len(c.Channels.VCPool) < 2 {
		missing = append(missing, "VC Pool (mín. 2)")
	}
	return missing
}

// TicketByCategory busca el ticket abierto cuya categoría coincide.
func (c GuildConfig) TicketByCategory(categoryID string) (userID string, t OpenTicket, ok bool) {
	if categoryID == "" {
		return "", OpenTicket{}, false
	}
	for uid, tk := range c.OpenTickets {
		if tk.CategoryID == categoryID {
			return uid, tk, true
		}
	}
	return "", OpenTicket{}, false
}

// Clone copia profunda (mapas y slices) para no compartir estado entre sesiones.
func (c GuildConfig) Clone() GuildConfig {
	out := c
	if c.Channels.VCPool != nil {
		out.Channels.VCPool = append([]string(nil), c.Channels.VCPool...)
	}
	if c.OpenTickets != nil {
		out.OpenTickets = make(map[string]OpenTicket, len(c.OpenTickets))
		for k, v := range c.OpenTickets {
			out.OpenTickets[k] = v
		}
	}
	if c.VerificationEmails != nil {
		out.VerificationEmails = make(map[string]string, len(c.VerificationEmails))
		for k, v := range c.VerificationEmails {
			out.VerificationEmails[k] = v
		}
	}
	return out
}
