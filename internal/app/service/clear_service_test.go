package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clearNow = time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)

func msgAgo(id string, ago time.Duration, pinned bool) *discordgo.Message {
	return &discordgo.Message{ID: id, Timestamp: clearNow.Add(-ago), Pinned: pinned}
}

// ordenados del más nuevo al más viejo, como los devuelve Discord
func sampleMessages() []*discordgo.Message {
	return []*discordgo.Message{
		msgAgo("m1", time.Minute, false),
		msgAgo("m2", 30*time.Minute, true),
		msgAgo("m3", 2*time.Hour, false),
		msgAgo("m4", 3*24*time.Hour, false),
		msgAgo("m5", 15*24*time.Hour, false),
	}
}

func TestSelectForClear(t *testing.T) {
	msgs := sampleMessages()

	assert.Equal(t, []string{"m1", "m2"}, SelectForClear(msgs, 2, "m", clearNow))
	assert.Equal(t, []string{"m1", "m2", "m3", "m4"}, SelectForClear(msgs, 100, "m", clearNow), "más de 14 días queda fuera")
	assert.Equal(t, []string{"m1"}, SelectForClear(msgs, 1, "h", clearNow), "los fijados se respetan")
	assert.Equal(t, []string{"m1", "m3"}, SelectForClear(msgs, 1, "d", clearNow))
	assert.Equal(t, []string{"m1", "m3", "m4"}, SelectForClear(msgs, 30, "d", clearNow))
}

func TestUnitLabel(t *testing.T) {
	assert.Equal(t, "mensajes", UnitLabel("m"))
	assert.Equal(t, "horas", UnitLabel("h"))
	assert.Equal(t, "dias", UnitLabel("d"))
}

func TestClearUsesBulkOrSingleDelete(t *testing.T) {
	ctx := context.Background()
	dg := newFakeSession()
	dg.messages = sampleMessages()
	svc := NewClearService(dg)

	n, err := svc.Clear(ctx, "c1", 1, "m", clearNow)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"m1"}, dg.single)
	assert.Empty(t, dg.bulk)

	n, err = svc.Clear(ctx, "c1", 5, "d", clearNow)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, dg.bulk, 1)
	assert.Equal(t, []string{"m1", "m3", "m4"}, dg.bulk[0])
}

func TestClearNothingToDelete(t *testing.T) {
	dg := newFakeSession()
	n, err := NewClearService(dg).Clear(context.Background(), "c1", 3, "h", clearNow)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, dg.single)
	assert.Empty(t, dg.bulk)
}
