package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/acm-community-bot/internal/infra/config"
)

type fakeAPI struct {
	app, guild string
	sent       []*discordgo.ApplicationCommand
	existing   []*discordgo.ApplicationCommand
	err        error
}

func (f *fakeAPI) ApplicationCommandBulkOverwrite(appID, guildID string, cmds []*discordgo.ApplicationCommand, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	f.app, f.guild, f.sent = appID, guildID, cmds
	return cmds, f.err
}

func (f *fakeAPI) ApplicationCommands(appID, guildID string, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	f.app, f.guild = appID, guildID
	return f.existing, f.err
}

func TestResolveTarget(t *testing.T) {
	cfg := config.Config{ClientID: "app", GuildIDTest: "g-test", GuildIDProd: "g-prod", DeployTarget: "test"}

	tg, err := resolveTarget(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, target{appID: "app", guildID: "g-test"}, tg)

	tg, err = resolveTarget(cfg, "prod")
	require.NoError(t, err)
	assert.Equal(t, "g-prod", tg.guildID)

	_, err = resolveTarget(cfg, "staging")
	assert.Error(t, err)

	cfg.GuildIDProd = ""
	_, err = resolveTarget(cfg, "prod")
	assert.ErrorIs(t, err, errNoGuild)

	cfg.ClientID = ""
	_, err = resolveTarget(cfg, "")
	assert.Error(t, err)
}

func TestDeploy_OverwritesTargetGuild(t *testing.T) {
	api := &fakeAPI{}
	var out bytes.Buffer
	cmds := []*discordgo.ApplicationCommand{{Name: "ping"}, {Name: "help"}}

	require.NoError(t, deploy(api, target{appID: "app", guildID: "g1"}, cmds, &out))
	assert.Equal(t, "app", api.app)
	assert.Equal(t, "g1", api.guild)
	assert.Len(t, api.sent, 2)
	assert.Contains(t, out.String(), "2 comandos registrados en g1")
}

func TestDeploy_Error(t *testing.T) {
	api := &fakeAPI{err: errors.New("401")}
	err := deploy(api, target{appID: "app", guildID: "g1"}, nil, &bytes.Buffer{})
	assert.ErrorContains(t, err, "bulk overwrite")
}

func TestList(t *testing.T) {
	api := &fakeAPI{existing: []*discordgo.ApplicationCommand{
		{Name: "verify", Description: "Verificación", Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "start"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "code"},
		}},
		{Name: "ping", Description: "Latencia"},
	}}
	var out bytes.Buffer
	require.NoError(t, list(api, target{appID: "app", guildID: "g1"}, &out))

	s := out.String()
	assert.Contains(t, s, "/ping")
	assert.Contains(t, s, "[start, code]")
	assert.Less(t, bytes.Index(out.Bytes(), []byte("/ping")), bytes.Index(out.Bytes(), []byte("/verify")))
}

func TestList_Empty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, list(&fakeAPI{}, target{}, &out))
	assert.Contains(t, out.String(), "sin comandos")
}
