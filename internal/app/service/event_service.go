package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const maxListedEvents = 10

type EventInput struct {
	Name           string
	Description    string
	Type           string // external | voice
	Start          string // RFC3339
	End            string
	Location       string
	VoiceChannelID string
	URL            string
	Ping           bool
	Color          string
}

// ErrInvalidEvent envuelve los errores de validación; el mensaje es para el usuario.
var ErrInvalidEvent = errors.New("evento inválido")

type EventService struct {
	cfg *ConfigService
	api EventAPI
	log *slog.Logger
	now func() time.Time
}

func NewEventService(cfg *ConfigService, api EventAPI, log *slog.Logger) *EventService {
	return &EventService{cfg: cfg, api: api, log: log, now: time.Now}
}

func invalid(msg string) error { return fmt.Errorf("%w: %s", ErrInvalidEvent, msg) }

// formatos ISO 8601 aceptados; sin zona horaria se toma UTC
var eventTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseEventTime acepta fecha, fecha+hora y fecha+hora+zona.
func ParseEventTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var err error
	for _, layout := range eventTimeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// Validate arma los parámetros del scheduled event.
func (s *EventService) Validate(in EventInput) (*discordgo.GuildScheduledEventParams, error) {
	start, err := ParseEventTime(in.Start)
	if err != nil {
		return nil, invalid("Fecha de inicio inválida.")
	}
	var end *time.Time
	if strings.TrimSpace(in.End) != "" {
		e, err := ParseEventTime(in.End)
		if err != nil {
			return nil, invalid("Fecha de fin inválida.")
		}
		end = &e
	}
	if !start.After(s.now()) {
		return nil, invalid("Inicio debe ser en el futuro.")
	}
	if end != nil && !end.After(start) {
		return nil, invalid("Fin debe ser después del inicio.")
	}

	p := &discordgo.GuildScheduledEventParams{
		Name:               in.Name,
		Description:        in.Description,
		ScheduledStartTime: &start,
		ScheduledEndTime:   end,
		PrivacyLevel:       discordgo.GuildScheduledEventPrivacyLevelGuildOnly,
	}
	switch in.Type {
	case "voice":
		if in.VoiceChannelID == "" {
			return nil, invalid("Para eventos voice se requiere voice_channel.")
		}
		p.EntityType = discordgo.GuildScheduledEventEntityTypeVoice
		p.ChannelID = in.VoiceChannelID
	default:
		if end == nil {
			return nil, invalid("Para eventos external se requiere fecha de fin.")
		}
		if strings.TrimSpace(in.Location) == "" {
			return nil, invalid("Para eventos external se requiere ubicación.")
		}
		p.EntityType = discordgo.GuildScheduledEventEntityTypeExternal
		p.EntityMetadata = &discordgo.GuildScheduledEventEntityMetadata{Location: in.Location}
	}
	return p, nil
}

// Create crea el evento y lo anuncia. Devuelve el texto para el usuario.
func (s *EventService) Create(ctx context.Context, guildID string, in EventInput) (string, error) {
	cfg, _, err := s.cfg.Get(ctx, guildID)
	if err != nil {
		return "", err
	}
	if cfg.Channels.Announcements == "" {
		return "Configura canal de anuncios en /setup.", nil
	}
	params, err := s.Validate(in)
	if errors.Is(err, ErrInvalidEvent) {
		return strings.TrimPrefix(err.Error(), ErrInvalidEvent.Error()+": "), nil
	}
	if err != nil {
		return "", err
	}

	ev, err := s.api.GuildScheduledEventCreate(guildID, params)
	if err != nil {
		s.log.Error("event: crear", "guild_id", guildID, "err", err)
		return "No se pudo crear el evento (revisa permisos y parámetros).", nil
	}

	endTxt := "N/A"
	if params.ScheduledEndTime != nil {
		endTxt = fmt.Sprintf("<t:%d:F>", params.ScheduledEndTime.Unix())
	}
	typ := "external"
	if params.EntityType == discordgo.GuildScheduledEventEntityTypeVoice {
		typ = "voice"
	}
	embed := Embed("Evento creado: "+in.Name, in.Description,
		Field("Inicio", fmt.Sprintf("<t:%d:F>", params.ScheduledStartTime.Unix()), true),
		Field("Fin", endTxt, true),
		Field("Tipo", typ, true),
		Field("Ubicación", orNA(in.Location), true),
		Field("URL", orNA(in.URL), true),
	)
	if c, ok := ParseHexColor(in.Color); ok {
		embed.Color = c
	}
	msg := &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
	if in.Ping && cfg.Roles.EventPing != "" {
		msg.Content = "<@&" + cfg.Roles.EventPing + ">"
		msg.AllowedMentions = &discordgo.MessageAllowedMentions{Roles: []string{cfg.Roles.EventPing}}
	}
	if _, err := s.api.ChannelMessageSendComplex(cfg.Channels.Announcements, msg); err != nil {
		s.log.Warn("event: no se pudo anunciar", "guild_id", guildID, "event_id", ev.ID, "err", err)
	}
	return "Evento creado con ID: " + ev.ID, nil
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func (s *EventService) Cancel(_ context.Context, guildID, eventID string) (string, error) {
	if err := s.api.GuildScheduledEventDelete(guildID, strings.TrimSpace(eventID)); err != nil {
		var rest *discordgo.RESTError
		if errors.As(err, &rest) && rest.Response != nil && rest.Response.StatusCode == 404 {
			return "Evento no encontrado.", nil
		}
		s.log.Error("event: cancelar", "guild_id", guildID, "event_id", eventID, "err", err)
		return "No se pudo cancelar el evento.", nil
	}
	return "Evento cancelado.", nil
}

// List devuelve hasta 10 eventos como embed, o nil si no hay.
func (s *EventService) List(_ context.Context, guildID string) (*discordgo.MessageEmbed, error) {
	evs, err := s.api.GuildScheduledEvents(guildID, false)
	if err != nil {
		return nil, err
	}
	if len(evs) == 0 {
		return nil, nil
	}
	if len(evs) > maxListedEvents {
		evs = evs[:maxListedEvents]
	}
	lines := make([]string, 0, len(evs))
	for _, e := range evs {
		lines = append(lines, fmt.Sprintf("`%s` | %s | <t:%d:f>", e.ID, e.Name, e.ScheduledStartTime.Unix()))
	}
	return Embed("Eventos programados", strings.Join(lines, "\n")), nil
}

// ParseHexColor acepta "#RRGGBB" o "RRGGBB".
func ParseHexColor(s string) (int, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, false
	}
	return int(v), true
}
