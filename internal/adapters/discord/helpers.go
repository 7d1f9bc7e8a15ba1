package discord

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// parseCustomID separa "prefijo:acción:usuario"; acción y usuario pueden faltar.
func parseCustomID(raw string) CustomID {
	parts := strings.SplitN(raw, ":", 3)
	id := CustomID{Prefix: parts[0]}
	if len(parts) > 1 {
		id.Action = parts[1]
	}
	if len(parts) > 2 {
		id.UserID = parts[2]
	}
	return id
}

func (id CustomID) String() string {
	return id.Prefix + ":" + id.Action + ":" + id.UserID
}

func customID(prefix, action, userID string) string {
	return CustomID{Prefix: prefix, Action: action, UserID: userID}.String()
}

// fmtUptime: "2d 3h 4m", "3h 4m", "4m 5s" o "5s".
func fmtUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int(d.Seconds())
	m, h, days := s/60, s/3600, s/86400
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, h%24, m%60)
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m%60)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s%60)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

func options(ic *discordgo.InteractionCreate) []*discordgo.ApplicationCommandInteractionDataOption {
	if ic.Type != discordgo.InteractionApplicationCommand {
		return nil
	}
	opts := ic.ApplicationCommandData().Options
	// subcommand
	if len(opts) == 1 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		return opts[0].Options
	}
	return opts
}

func optStr(ic *discordgo.InteractionCreate, name string) (string, bool) {
	for _, o := range options(ic) {
		if o.Name == name && o.Type == discordgo.ApplicationCommandOptionString {
			return o.StringValue(), true
		}
	}
	return "", false
}

func optBool(ic *discordgo.InteractionCreate, name string) (bool, bool) {
	for _, o := range options(ic) {
		if o.Name == name && o.Type == discordgo.ApplicationCommandOptionBoolean {
			return o.BoolValue(), true
		}
	}
	return false, false
}

func optInt(ic *discordgo.InteractionCreate, name string) (int, bool) {
	for _, o := range options(ic) {
		if o.Name == name && o.Type == discordgo.ApplicationCommandOptionInteger {
			return int(o.IntValue()), true
		}
	}
	return 0, false
}

func optChannel(ic *discordgo.InteractionCreate, name string) (string, bool) {
	for _, o := range options(ic) {
		if o.Name == name && o.Type == discordgo.ApplicationCommandOptionChannel {
			if id, ok := o.Value.(string); ok {
				return id, true
			}
		}
	}
	return "", false
}

func subcmdName(ic *discordgo.InteractionCreate) (string, bool) {
	if ic.Type != discordgo.InteractionApplicationCommand {
		return "", false
	}
	for _, o := range ic.ApplicationCommandData().Options {
		if o.Type == discordgo.ApplicationCommandOptionSubCommand {
			return o.Name, true
		}
	}
	return "", false
}

// modalValue busca un TextInput por custom_id dentro del modal enviado.
func modalValue(data discordgo.ModalSubmitInteractionData, id string) string {
	for _, c := range data.Components {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, rc := range row.Components {
			if in, ok := rc.(*discordgo.TextInput); ok && in.CustomID == id {
				return strings.TrimSpace(in.Value)
			}
		}
	}
	return ""
}

// validImageURL acepta sólo URLs absolutas http(s).
func validImageURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// errType agrupa errores para las métricas.
func errType(err error) string {
	var rest *discordgo.RESTError
	var pe panicError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &pe):
		return "panic"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &rest):
		if rest.Message != nil && rest.Message.Code != 0 {
			return fmt.Sprintf("discord_%d", rest.Message.Code)
		}
		if rest.Response != nil {
			return fmt.Sprintf("http_%d", rest.Response.StatusCode)
		}
		return "discord"
	default:
		return "internal"
	}
}

type panicError struct{ v any }

func (p panicError) Error() string { return fmt.Sprintf("panic: %v", p.v) }

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func mentionRole(id string) string    { return "<@&" + id + ">" }
func mentionChannel(id string) string { return "<#" + id + ">" }

func orMissing(id string, mention func(string) string, missing string) string {
	if id == "" {
		return missing
	}
	return mention(id)
}
