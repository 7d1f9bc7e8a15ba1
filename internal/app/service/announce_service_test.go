package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnouncePublishesMentionsFirst(t *testing.T) {
	dg := newFakeSession()
	a := Announcement{Title: "Hola", Message: "Texto", Color: 0x123456, Image: "https://x/y.png", Roles: []string{"r1", "r2"}}

	require.NoError(t, NewAnnounceService(dg).Publish(context.Background(), "c-news", a))
	require.Len(t, dg.sent, 2)
	assert.Equal(t, "<@&r1> <@&r2>", dg.sent[0].Content)
	assert.Equal(t, []string{"r1", "r2"}, dg.sent[0].AllowedMentions.Roles)

	e := dg.sent[1].Embeds[0]
	assert.Equal(t, "Hola", e.Title)
	assert.Equal(t, 0x123456, e.Color)
	assert.Equal(t, "https://x/y.png", e.Image.URL)
}

func TestAnnounceWithoutRoles(t *testing.T) {
	dg := newFakeSession()
	require.NoError(t, NewAnnounceService(dg).Publish(context.Background(), "c-news", Announcement{Title: "Hola"}))
	require.Len(t, dg.sent, 1)
	assert.Equal(t, ColorBrand, dg.sent[0].Embeds[0].Color)
}
