// lógica de InteractionMessageComponent y ModalSubmit: botones, selects y modales de los wizards
package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

func (r *Router) handleComponent(ctx context.Context, c *Ctx) error {
	ic := c.Event
	var raw string
	if ic.Type == discordgo.InteractionModalSubmit {
		raw = ic.ModalSubmitData().CustomID
	} else {
		data := ic.MessageComponentData()
		raw = data.CustomID
		// anti doble click (solo botones; los selects se reenvían con cada cambio)
		if data.ComponentType == discordgo.ButtonComponent && !r.clickLimiter.Allow(ctx, c.UserID) {
			return SendEphemeral(c.Session, ic, "⏳ Espera un segundo…")
		}
	}

	id := parseCustomID(raw)
	h, ok := r.components[id.Prefix]
	if !ok {
		c.Log.Warn("componente desconocido", "custom_id", raw)
		return SendEphemeral(c.Session, ic, "❌ Acción desconocida.")
	}
	defer step(c.Log, "component."+id.Prefix+"."+id.Action)()
	return h(ctx, c, id)
}
