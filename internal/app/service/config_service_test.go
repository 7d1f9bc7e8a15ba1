package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/acm-community-bot/internal/domain"
)

func TestConfigGetMissing(t *testing.T) {
	cfg := newConfigService(t)
	gc, found, err := cfg.Get(context.Background(), "g1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "g1", gc.GuildID)
	assert.NotNil(t, gc.OpenTickets)
}

func TestConfigSaveKeepsRuntimeData(t *testing.T) {
	ctx := context.Background()
	prev := domain.NewGuildConfig("g1")
	prev.TicketMessageID = "m1"
	prev.OpenTickets["u1"] = domain.OpenTicket{CategoryID: "cat"}
	prev.VerificationEmails["a@b.co"] = "u2"
	prev.AlertThreshold = 40
	cfg := newConfigService(t, prev)

	next := domain.NewGuildConfig("g1")
	next.Roles.Verify = "r-verify"
	require.NoError(t, cfg.Save(ctx, next))

	gc, found, err := cfg.Get(ctx, "g1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "r-verify", gc.Roles.Verify)
	assert.Equal(t, "m1", gc.TicketMessageID)
	assert.Equal(t, "cat", gc.OpenTickets["u1"].CategoryID)
	assert.Equal(t, "u2", gc.VerificationEmails["a@b.co"])
	assert.Equal(t, 40, gc.AlertThreshold)
}

func TestConfigPatch(t *testing.T) {
	ctx := context.Background()
	cfg := newConfigService(t)

	bad := 0
	msg, err := cfg.Patch(ctx, "g1", ConfigPatch{AlertThreshold: &bad})
	require.NoError(t, err)
	assert.Contains(t, msg, "entre 1 y 100")

	th, ch := 35, "c-alerts"
	msg, err = cfg.Patch(ctx, "g1", ConfigPatch{AlertThreshold: &th, AlertsChannel: &ch})
	require.NoError(t, err)
	assert.Contains(t, msg, "**35%**")
	assert.Contains(t, msg, "<#c-alerts>")
}

func TestConfigReset(t *testing.T) {
	ctx := context.Background()
	cfg := newConfigService(t, domain.NewGuildConfig("g1"))

	ok, err := cfg.Reset(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cfg.Reset(ctx, "g1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDescribeAlertsFallback(t *testing.T) {
	gc := domain.NewGuildConfig("g1")
	gc.Channels.Announcements = "c-news"
	gc.Channels.VCPool = []string{"v1", "v2"}
	out := Describe(gc)
	assert.Contains(t, out, "(usa anuncios) <#c-news>")
	assert.Contains(t, out, "<#v1> <#v2>")
	assert.Contains(t, out, "**20%**")
}
