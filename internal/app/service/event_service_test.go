package service

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/acm-community-bot/internal/domain"
)

var eventNow = time.Date(2025, 5, 10, 15, 0, 0, 0, time.UTC)

func eventFixture(t *testing.T) (*EventService, *fakeSession) {
	t.Helper()
	gc := domain.NewGuildConfig("g1")
	gc.Channels.Announcements = "c-news"
	gc.Roles.EventPing = "r-ping"
	dg := newFakeSession()
	svc := NewEventService(newConfigService(t, gc), dg, discardLog)
	svc.now = func() time.Time { return eventNow }
	return svc, dg
}

func TestEventValidate(t *testing.T) {
	svc, _ := eventFixture(t)
	cases := []struct {
		name string
		in   EventInput
		want string
	}{
		{"inicio inválido", EventInput{Start: "mañana"}, "Fecha de inicio inválida."},
		{"fin inválido", EventInput{Start: "2025-05-11T10:00:00Z", End: "x"}, "Fecha de fin inválida."},
		{"pasado", EventInput{Start: "2025-05-10T14:00:00Z"}, "Inicio debe ser en el futuro."},
		{"fin antes", EventInput{Start: "2025-05-11T10:00:00Z", End: "2025-05-11T09:00:00Z"}, "Fin debe ser después del inicio."},
		{"voice sin canal", EventInput{Type: "voice", Start: "2025-05-11T10:00:00Z"}, "voice_channel"},
		{"external sin fin", EventInput{Type: "external", Start: "2025-05-11T10:00:00Z", Location: "Aula 1"}, "fecha de fin"},
		{"external sin ubicación", EventInput{Type: "external", Start: "2025-05-11T10:00:00Z", End: "2025-05-11T12:00:00Z"}, "ubicación"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Validate(tc.in)
			require.ErrorIs(t, err, ErrInvalidEvent)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	p, err := svc.Validate(EventInput{Name: "Taller", Type: "voice", VoiceChannelID: "vc-1", Start: "2025-05-11T10:00:00-05:00"})
	require.NoError(t, err)
	assert.Equal(t, discordgo.GuildScheduledEventEntityTypeVoice, p.EntityType)
	assert.Equal(t, "vc-1", p.ChannelID)
	assert.Nil(t, p.ScheduledEndTime)
}

func TestParseEventTime(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
	}{
		{"2025-01-19T18:00:00Z", time.Date(2025, 1, 19, 18, 0, 0, 0, time.UTC)},
		{"2025-01-19T18:00:00", time.Date(2025, 1, 19, 18, 0, 0, 0, time.UTC)},
		{"2025-01-19T18:00Z", time.Date(2025, 1, 19, 18, 0, 0, 0, time.UTC)},
		{"2025-01-19T18:00", time.Date(2025, 1, 19, 18, 0, 0, 0, time.UTC)},
		{"2025-01-19 18:30", time.Date(2025, 1, 19, 18, 30, 0, 0, time.UTC)},
		{" 2025-01-19 ", time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC)},
		{"2025-01-19T13:00:00.5-05:00", time.Date(2025, 1, 19, 18, 0, 0, 5e8, time.UTC)},
		{"2025-01-19T13:00-05:00", time.Date(2025, 1, 19, 18, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := ParseEventTime(tc.raw)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "got %s", got)
		})
	}

	for _, raw := range []string{"", "mañana", "19/01/2025", "2025-13-01"} {
		_, err := ParseEventTime(raw)
		assert.Error(t, err, raw)
	}
}

func TestEventValidateAcceptsDateWithoutZone(t *testing.T) {
	svc, _ := eventFixture(t)
	p, err := svc.Validate(EventInput{Name: "Taller", Type: "external", Location: "Aula 1", Start: "2025-05-11T18:00:00", End: "2025-05-12"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 5, 11, 18, 0, 0, 0, time.UTC), *p.ScheduledStartTime)
	assert.Equal(t, time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC), *p.ScheduledEndTime)
}

func TestEventCreateAnnouncesWithPing(t *testing.T) {
	svc, dg := eventFixture(t)

	msg, err := svc.Create(context.Background(), "g1", EventInput{
		Name: "Hackathon", Type: "external", Location: "Aula 1",
		Start: "2025-05-11T10:00:00Z", End: "2025-05-11T18:00:00Z",
		Ping: true, Color: "#ff0000",
	})
	require.NoError(t, err)
	assert.Contains(t, msg, "Evento creado con ID: ")
	require.Len(t, dg.events, 1)

	require.Len(t, dg.sent, 1)
	assert.Equal(t, "c-news", dg.sentTo[0])
	assert.Equal(t, "<@&r-ping>", dg.sent[0].Content)
	assert.Equal(t, 0xFF0000, dg.sent[0].Embeds[0].Color)
}

func TestEventCreateValidationMessage(t *testing.T) {
	svc, dg := eventFixture(t)

	msg, err := svc.Create(context.Background(), "g1", EventInput{Name: "x", Start: "2025-05-09T10:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, "Inicio debe ser en el futuro.", msg)
	assert.Empty(t, dg.events)
}

func TestEventCancelNotFound(t *testing.T) {
	svc, dg := eventFixture(t)
	msg, err := svc.Cancel(context.Background(), "g1", "e404")
	require.NoError(t, err)
	assert.Equal(t, "No se pudo cancelar el evento.", msg)

	dgErr := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}}
	svc.api = &cancelNotFound{fakeSession: dg, err: dgErr}
	msg, err = svc.Cancel(context.Background(), "g1", "e404")
	require.NoError(t, err)
	assert.Equal(t, "Evento no encontrado.", msg)
}

type cancelNotFound struct {
	*fakeSession
	err error
}

func (c *cancelNotFound) GuildScheduledEventDelete(string, string, ...discordgo.RequestOption) error {
	return c.err
}

func TestEventList(t *testing.T) {
	svc, dg := eventFixture(t)

	e, err := svc.List(context.Background(), "g1")
	require.NoError(t, err)
	assert.Nil(t, e)

	for i := 0; i < 12; i++ {
		dg.events = append(dg.events, &discordgo.GuildScheduledEvent{ID: "e", Name: "n", ScheduledStartTime: eventNow})
	}
	e, err = svc.List(context.Background(), "g1")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Len(t, strings.Split(e.Description, "\n"), 10)
}

func TestParseHexColor(t *testing.T) {
	c, ok := ParseHexColor("#5865F2")
	require.True(t, ok)
	assert.Equal(t, ColorBrand, c)

	_, ok = ParseHexColor("rojo")
	assert.False(t, ok)
}
