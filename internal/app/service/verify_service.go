package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/acm-community-bot/internal/domain"
)

const verifyCooldown = 30 * time.Second

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type VerifyService struct {
	cfg       *ConfigService
	otps      OTPStore
	cooldowns Cooldowns
	mailer    Mailer
	roles     RoleAPI
	botID     func() string
	domain    string
	log       *slog.Logger

	// códigos emitidos cuyo correo no salió; /verify start los reenvía
	mu          sync.Mutex
	undelivered map[string]struct{}
}

func NewVerifyService(cfg *ConfigService, otps OTPStore, cds Cooldowns, mailer Mailer, roles RoleAPI,
	botID func() string, institutionalDomain string, log *slog.Logger) *VerifyService {
	return &VerifyService{
		cfg: cfg, otps: otps, cooldowns: cds, mailer: mailer, roles: roles,
		botID: botID, domain: strings.ToLower(institutionalDomain), log: log,
		undelivered: map[string]struct{}{},
	}
}

func verifyKey(guildID, userID string) string { return "verify:" + guildID + ":" + userID }

// Start emite un OTP y lo envía por correo.
func (s *VerifyService) Start(ctx context.Context, guildID, userID, rawEmail string) (string, error) {
	cfg, _, err := s.cfg.Get(ctx, guildID)
	if err != nil {
		return "", err
	}
	if cfg.Roles.Verify == "" {
		return "Rol de verificación no configurado. Usa /setup.", nil
	}
	email := strings.ToLower(strings.TrimSpace(rawEmail))
	if !emailRe.MatchString(email) {
		return "Correo inválido. Usa un formato válido.", nil
	}

	key := verifyKey(guildID, userID)
	pending, ok, err := s.otps.Pending(ctx, guildID, userID)
	if err != nil {
		return "", err
	}
	if ok && !(s.wasUndelivered(key) && pending.Email == email) {
		return "Ya tienes un OTP pendiente, revisa tu correo.", nil
	}

	cd, err := s.cooldowns.Check(ctx, key, verifyCooldown)
	if err != nil {
		return "", err
	}
	if !cd.Allowed {
		return fmt.Sprintf("⏳ Espera %ds antes de pedir otro código.", int(cd.Remaining.Round(time.Second)/time.Second)), nil
	}

	if owner, used := cfg.VerificationEmails[email]; used && owner != userID {
		return "Este correo ya fue usado por otro usuario. No se puede reutilizar.", nil
	}

	code := pending.Code
	if !ok {
		if code, err = s.otps.Issue(ctx, guildID, userID, email); err != nil {
			return "", err
		}
	}
	if err := s.mailer.SendOTP(ctx, email, code); err != nil {
		s.markUndelivered(key, true)
		s.log.Warn("verify: no se pudo enviar el OTP", "guild_id", guildID, "user_id", userID, "email", email, "err", err)
		return "❌ No se pudo enviar el código: " + userMessage(err) + " Vuelve a intentar con `/verify start`.", nil
	}
	s.markUndelivered(key, false)
	return fmt.Sprintf("📧 Enviamos un código a **%s**. Usa `/verify code` con el OTP (vence en 10 minutos).", email), nil
}

type userFacing interface{ UserFacing() string }

func userMessage(err error) string {
	var uf userFacing
	if errors.As(err, &uf) {
		return uf.UserFacing()
	}
	return "No se pudo enviar el correo."
}

func (s *VerifyService) wasUndelivered(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.undelivered[key]
	return ok
}

func (s *VerifyService) markUndelivered(key string, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if failed {
		s.undelivered[key] = struct{}{}
	} else {
		delete(s.undelivered, key)
	}
}

// Confirm valida el OTP y asigna los roles de verificado.
func (s *VerifyService) Confirm(ctx context.Context, guildID, userID, code string) (string, error) {
	cfg, _, err := s.cfg.Get(ctx, guildID)
	if err != nil {
		return "", err
	}
	if cfg.Roles.Verify == "" {
		return "Rol de verificación no configurado. Usa /setup.", nil
	}

	email, err := s.otps.Verify(ctx, guildID, userID, strings.TrimSpace(code))
	switch {
	case errors.Is(err, domain.ErrNoPendingOTP):
		return "No se pudo verificar: no tienes un OTP pendiente. Usa `/verify start`.", nil
	case errors.Is(err, domain.ErrOTPExpired):
		return "No se pudo verificar: el OTP expiró. Pide uno nuevo con `/verify start`.", nil
	case errors.Is(err, domain.ErrOTPMismatch):
		return "No se pudo verificar: el OTP es inválido.", nil
	case err != nil:
		return "", err
	}
	s.markUndelivered(verifyKey(guildID, userID), false)

	roleIDs := []string{cfg.Roles.Verify}
	if cfg.Roles.VerifyInstitutional != "" && s.domain != "" && strings.HasSuffix(email, "@"+s.domain) {
		roleIDs = append(roleIDs, cfg.Roles.VerifyInstitutional)
	}
	if msg, err := s.checkAssignable(guildID, roleIDs); msg != "" || err != nil {
		return msg, err
	}
	for _, rid := range roleIDs {
		if err := s.roles.GuildMemberRoleAdd(guildID, userID, rid); err != nil {
			s.log.Error("verify: asignar rol", "guild_id", guildID, "user_id", userID, "role_id", rid, "err", err)
			return "No pude asignar el rol de verificado. Revisa permisos/jerarquía.", nil
		}
	}

	if _, err := s.cfg.Update(ctx, guildID, func(c *domain.GuildConfig) error {
		c.VerificationEmails[email] = userID
		return nil
	}); err != nil {
		return "", err
	}
	msg := "✅ Correo verificado: **" + email + "**"
	if len(roleIDs) > 1 {
		msg += "\n🎓 También recibiste el rol institucional."
	}
	return msg, nil
}

// checkAssignable verifica que los roles existan y que el bot pueda asignarlos.
func (s *VerifyService) checkAssignable(guildID string, roleIDs []string) (string, error) {
	roles, err := s.roles.GuildRoles(guildID)
	if err != nil {
		return "", err
	}
	byID := make(map[string]*discordgo.Role, len(roles))
	for _, r := range roles {
		byID[r.ID] = r
	}
	for _, rid := range roleIDs {
		if byID[rid] == nil {
			return "El rol de verificado no existe en el servidor.", nil
		}
	}

	bot, err := s.roles.GuildMember(guildID, s.botID())
	if err != nil {
		return "", err
	}
	perms, top := memberPower(guildID, bot.Roles, byID)
	if perms&discordgo.PermissionAdministrator == 0 && perms&discordgo.PermissionManageRoles == 0 {
		return "No tengo permiso de Manage Roles para asignar el rol de verificado.", nil
	}
	for _, rid := range roleIDs {
		if byID[rid].Position >= top {
			return "El rol de verificado está por encima o igual a mi rol. Súbeme en la jerarquía.", nil
		}
	}
	return "", nil
}

// memberPower suma los permisos de @everyone y de los roles del miembro, y devuelve la posición más alta.
func memberPower(guildID string, memberRoles []string, byID map[string]*discordgo.Role) (perms int64, top int) {
	if everyone := byID[guildID]; everyone != nil {
		perms = everyone.Permissions
	}
	positions := make([]int, 0, len(memberRoles))
	for _, rid := range memberRoles {
		if r := byID[rid]; r != nil {
			perms |= r.Permissions
			positions = append(positions, r.Position)
		}
	}
	if len(positions) > 0 {
		sort.Ints(positions)
		top = positions[len(positions)-1]
	}
	return perms, top
}
