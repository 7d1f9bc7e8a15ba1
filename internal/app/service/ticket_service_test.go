package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/acm-community-bot/internal/domain"
)

func ticketFixture(t *testing.T) (*TicketService, *ConfigService, *fakeSession) {
	t.Helper()
	gc := domain.NewGuildConfig("g1")
	gc.Channels.TicketTrigger = "c-tickets"
	gc.Roles.Junta = "r-junta"
	cfg := newConfigService(t, gc)
	dg := newFakeSession()
	return NewTicketService(cfg, dg, discardLog), cfg, dg
}

func TestTicketNameSanitizes(t *testing.T) {
	assert.Equal(t, "ticket-juanprez_1", ticketName("Juan.Pérez_1"))
	assert.Equal(t, "ticket-user", ticketName("☕☕"))
}

func TestPublishTriggerStoresMessage(t *testing.T) {
	ctx := context.Background()
	svc, cfg, dg := ticketFixture(t)

	msg, err := svc.PublishTrigger(ctx, "g1", "")
	require.NoError(t, err)
	assert.Contains(t, msg, "<#c-tickets>")
	require.Len(t, dg.sent, 1)
	assert.Equal(t, defaultTicketDescription, dg.sent[0].Embeds[0].Description)
	require.Len(t, dg.reactions, 1)

	gc, _, err := cfg.Get(ctx, "g1")
	require.NoError(t, err)
	assert.NotEmpty(t, gc.TicketMessageID)
}

func TestOpenFromReactionCreatesChannels(t *testing.T) {
	ctx := context.Background()
	svc, cfg, dg := ticketFixture(t)

	tk, err := svc.OpenFromReaction(ctx, "g1", "c-tickets", "m1", "u1", "Ana", TicketEmoji)
	require.NoError(t, err)
	require.NotNil(t, tk)

	require.Len(t, dg.created, 3)
	assert.Equal(t, discordgo.ChannelTypeGuildCategory, dg.created[0].Type)
	assert.Equal(t, "ticket-ana-txt", dg.created[1].Name)
	assert.Equal(t, "ticket-ana-vc", dg.created[2].Name)
	assert.Equal(t, tk.CategoryID, dg.created[1].ParentID)
	assert.Len(t, dg.created[0].PermissionOverwrites, 3)
	assert.Equal(t, []string{"m1:" + TicketEmoji + ":u1"}, dg.unreactions)

	gc, _, err := cfg.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, *tk, gc.OpenTickets["u1"])

	// segunda reacción con la categoría viva: no duplica
	again, err := svc.OpenFromReaction(ctx, "g1", "c-tickets", "m1", "u1", "Ana", TicketEmoji)
	require.NoError(t, err)
	assert.Nil(t, again)
	assert.Len(t, dg.created, 3)
}

func TestOpenFromReactionIgnoresOtherReactions(t *testing.T) {
	ctx := context.Background()
	svc, _, dg := ticketFixture(t)

	tk, err := svc.OpenFromReaction(ctx, "g1", "c-otro", "m1", "u1", "Ana", TicketEmoji)
	require.NoError(t, err)
	assert.Nil(t, tk)

	tk, err = svc.OpenFromReaction(ctx, "g1", "c-tickets", "m1", "u1", "Ana", "👍")
	require.NoError(t, err)
	assert.Nil(t, tk)
	assert.Empty(t, dg.created)
}

func TestTicketClose(t *testing.T) {
	ctx := context.Background()
	svc, cfg, dg := ticketFixture(t)

	tk, err := svc.OpenFromReaction(ctx, "g1", "c-tickets", "m1", "u1", "Ana", TicketEmoji)
	require.NoError(t, err)
	require.NotNil(t, tk)

	msg, err := svc.Close(ctx, "g1", tk.TextID)
	require.NoError(t, err)
	assert.Equal(t, "Ticket cerrado", msg)
	assert.ElementsMatch(t, []string{tk.TextID, tk.VoiceID, tk.CategoryID}, dg.deleted)
	assert.Equal(t, tk.CategoryID, dg.deleted[len(dg.deleted)-1])

	gc, _, err := cfg.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, gc.OpenTickets)
}

func TestTicketCloseOutsideTicket(t *testing.T) {
	svc, _, dg := ticketFixture(t)
	dg.channels["c-general"] = &discordgo.Channel{ID: "c-general"}

	msg, err := svc.Close(context.Background(), "g1", "c-general")
	require.NoError(t, err)
	assert.Contains(t, msg, "no pertenece")
	assert.Empty(t, dg.deleted)
}

func TestTicketCloseRefusesUnregisteredCategory(t *testing.T) {
	svc, _, dg := ticketFixture(t)
	dg.channels["c-clases"] = &discordgo.Channel{ID: "c-clases", ParentID: "cat-academico"}
	dg.channels["c-notas"] = &discordgo.Channel{ID: "c-notas", ParentID: "cat-academico"}

	msg, err := svc.Close(context.Background(), "g1", "c-clases")
	require.NoError(t, err)
	assert.Contains(t, msg, "no pertenece")
	assert.Empty(t, dg.deleted)
}
