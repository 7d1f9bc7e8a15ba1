package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/acm-community-bot/internal/domain"
)

func (r *Router) isOwner(s *discordgo.Session, ic *discordgo.InteractionCreate) bool {
	g, err := s.State.Guild(ic.GuildID)
	if err != nil || g == nil {
		if g, err = s.Guild(ic.GuildID); err != nil {
			return false
		}
	}
	return ic.Member != nil && ic.Member.User != nil && ic.Member.User.ID == g.OwnerID
}

// isAdmin: bit Administrator, dueño del servidor, rol admin/junta configurado o ADMIN_ROLE_IDS.
func (r *Router) isAdmin(s *discordgo.Session, ic *discordgo.InteractionCreate, cfg domain.GuildConfig) bool {
	if ic.Member == nil {
		return false
	}
	if ic.Member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	if r.isOwner(s, ic) {
		return true
	}
	want := make([]string, 0, len(r.adminRoleIDs)+2)
	want = append(want, r.adminRoleIDs...)
	if cfg.Roles.Admin != "" {
		want = append(want, cfg.Roles.Admin)
	}
	if cfg.Roles.Junta != "" {
		want = append(want, cfg.Roles.Junta)
	}
	return hasAnyRole(ic.Member.Roles, want)
}

func hasAnyRole(memberRoles, want []string) bool {
	if len(want) == 0 {
		return false
	}
	has := make(map[string]struct{}, len(memberRoles))
	for _, rid := range memberRoles {
		has[rid] = struct{}{}
	}
	for _, w := range want {
		if _, ok := has[w]; ok {
			return true
		}
	}
	return false
}

// hasPerm mira los permisos efectivos del miembro en el canal de la interacción.
func hasPerm(ic *discordgo.InteractionCreate, perm int64) bool {
	if ic.Member == nil {
		return false
	}
	p := ic.Member.Permissions
	return p&discordgo.PermissionAdministrator != 0 || p&perm == perm
}

func (r *Router) requireAdmin(c *Ctx, cfg domain.GuildConfig) bool {
	if r.isAdmin(c.Session, c.Event, cfg) {
		return true
	}
	c.Log.Info("acceso denegado")
	r.reply(c, "🔒 No tienes permisos para esta acción.")
	return false
}
