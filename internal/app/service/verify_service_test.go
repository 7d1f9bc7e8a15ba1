package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/acm-community-bot/internal/domain"
	"github.com/jose-valero/acm-community-bot/internal/infra/memstore"
)

type fakeMailer struct {
	sent []string // "to:code"
	err  error
}

func (m *fakeMailer) SendOTP(_ context.Context, to, code string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to+":"+code)
	return nil
}

type friendlyErr struct{ msg string }

func (e friendlyErr) Error() string      { return "smtp: " + e.msg }
func (e friendlyErr) UserFacing() string { return e.msg }

type verifyFixture struct {
	svc    *VerifyService
	cfg    *ConfigService
	otps   *memstore.OTPStore
	mailer *fakeMailer
	dg     *fakeSession
}

func newVerifyFixture(t *testing.T) *verifyFixture {
	t.Helper()
	gc := domain.NewGuildConfig("g1")
	gc.Roles.Verify = "r-verify"
	gc.Roles.VerifyInstitutional = "r-jav"
	cfg := newConfigService(t, gc)

	dg := newFakeSession()
	dg.roles = []*discordgo.Role{
		{ID: "g1", Permissions: 0},
		{ID: "r-bot", Position: 10, Permissions: discordgo.PermissionManageRoles},
		{ID: "r-verify", Position: 2},
		{ID: "r-jav", Position: 3},
	}
	dg.members["bot"] = &discordgo.Member{User: &discordgo.User{ID: "bot"}, Roles: []string{"r-bot"}}

	f := &verifyFixture{cfg: cfg, otps: memstore.NewOTPStore(0), mailer: &fakeMailer{}, dg: dg}
	f.svc = NewVerifyService(cfg, f.otps, memstore.NewCooldowns(), f.mailer, dg,
		func() string { return "bot" }, "javeriana.edu.co", discardLog)
	return f
}

func (f *verifyFixture) lastCode(t *testing.T) string {
	t.Helper()
	e, ok, err := f.otps.Pending(context.Background(), "g1", "u1")
	require.NoError(t, err)
	require.True(t, ok)
	return e.Code
}

func TestVerifyStartAndConfirm(t *testing.T) {
	ctx := context.Background()
	f := newVerifyFixture(t)

	msg, err := f.svc.Start(ctx, "g1", "u1", "  Ana@Javeriana.edu.co ")
	require.NoError(t, err)
	assert.Contains(t, msg, "ana@javeriana.edu.co")
	require.Len(t, f.mailer.sent, 1)

	code := f.lastCode(t)
	msg, err = f.svc.Confirm(ctx, "g1", "u1", code)
	require.NoError(t, err)
	assert.Contains(t, msg, "✅")
	assert.Contains(t, msg, "institucional")
	assert.Equal(t, []string{"u1:r-verify", "u1:r-jav"}, f.dg.roleAdds)

	cfg, _, err := f.cfg.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "u1", cfg.VerificationEmails["ana@javeriana.edu.co"])
}

func TestVerifyNonInstitutionalGetsOnlyBaseRole(t *testing.T) {
	ctx := context.Background()
	f := newVerifyFixture(t)

	_, err := f.svc.Start(ctx, "g1", "u1", "ana@gmail.com")
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, "g1", "u1", f.lastCode(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"u1:r-verify"}, f.dg.roleAdds)
}

func TestVerifyStartRejects(t *testing.T) {
	ctx := context.Background()

	t.Run("sin rol configurado", func(t *testing.T) {
		cfg := newConfigService(t)
		svc := NewVerifyService(cfg, memstore.NewOTPStore(0), memstore.NewCooldowns(), &fakeMailer{}, newFakeSession(),
			func() string { return "bot" }, "javeriana.edu.co", discardLog)
		msg, err := svc.Start(ctx, "g1", "u1", "a@b.co")
		require.NoError(t, err)
		assert.Contains(t, msg, "no configurado")
	})

	t.Run("correo inválido", func(t *testing.T) {
		f := newVerifyFixture(t)
		msg, err := f.svc.Start(ctx, "g1", "u1", "no-es-correo")
		require.NoError(t, err)
		assert.Contains(t, msg, "Correo inválido")
		assert.Empty(t, f.mailer.sent)
	})

	t.Run("pendiente", func(t *testing.T) {
		f := newVerifyFixture(t)
		_, err := f.svc.Start(ctx, "g1", "u1", "a@b.co")
		require.NoError(t, err)
		msg, err := f.svc.Start(ctx, "g1", "u1", "a@b.co")
		require.NoError(t, err)
		assert.Contains(t, msg, "pendiente")
		assert.Len(t, f.mailer.sent, 1)
	})

	t.Run("correo de otro usuario", func(t *testing.T) {
		f := newVerifyFixture(t)
		_, err := f.cfg.Update(ctx, "g1", func(c *domain.GuildConfig) error {
			c.VerificationEmails["a@b.co"] = "otro"
			return nil
		})
		require.NoError(t, err)
		msg, err := f.svc.Start(ctx, "g1", "u1", "a@b.co")
		require.NoError(t, err)
		assert.Contains(t, msg, "ya fue usado")
	})
}

func TestVerifyFailedDeliveryCanBeResent(t *testing.T) {
	ctx := context.Background()
	f := newVerifyFixture(t)
	f.mailer.err = friendlyErr{msg: "El servidor de correo no respondió a tiempo."}

	msg, err := f.svc.Start(ctx, "g1", "u1", "a@b.co")
	require.NoError(t, err)
	assert.Contains(t, msg, "❌ No se pudo enviar el código: El servidor de correo no respondió a tiempo.")
	code := f.lastCode(t)

	// el cooldown de 30s sigue activo
	f.mailer.err = nil
	msg, err = f.svc.Start(ctx, "g1", "u1", "a@b.co")
	require.NoError(t, err)
	assert.Contains(t, msg, "⏳")
	assert.Empty(t, f.mailer.sent)

	f.svc.cooldowns = memstore.NewCooldowns()
	msg, err = f.svc.Start(ctx, "g1", "u1", "a@b.co")
	require.NoError(t, err)
	assert.Contains(t, msg, "📧")
	assert.Equal(t, []string{"a@b.co:" + code}, f.mailer.sent)
}

func TestVerifyConfirmReasons(t *testing.T) {
	ctx := context.Background()
	f := newVerifyFixture(t)

	msg, err := f.svc.Confirm(ctx, "g1", "u1", "123456")
	require.NoError(t, err)
	assert.Contains(t, msg, "no tienes un OTP pendiente")

	_, err = f.svc.Start(ctx, "g1", "u1", "a@b.co")
	require.NoError(t, err)
	code := f.lastCode(t)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	msg, err = f.svc.Confirm(ctx, "g1", "u1", wrong)
	require.NoError(t, err)
	assert.Contains(t, msg, "inválido")

	// un mismatch no consume el código
	msg, err = f.svc.Confirm(ctx, "g1", "u1", code)
	require.NoError(t, err)
	assert.Contains(t, msg, "✅")
}

func TestVerifyRoleHierarchy(t *testing.T) {
	ctx := context.Background()

	t.Run("rol por encima del bot", func(t *testing.T) {
		f := newVerifyFixture(t)
		f.dg.roles[2].Position = 11
		_, err := f.svc.Start(ctx, "g1", "u1", "a@b.co")
		require.NoError(t, err)
		msg, err := f.svc.Confirm(ctx, "g1", "u1", f.lastCode(t))
		require.NoError(t, err)
		assert.Contains(t, msg, "Súbeme en la jerarquía")
		assert.Empty(t, f.dg.roleAdds)
	})

	t.Run("sin manage roles", func(t *testing.T) {
		f := newVerifyFixture(t)
		f.dg.roles[1].Permissions = 0
		_, err := f.svc.Start(ctx, "g1", "u1", "a@b.co")
		require.NoError(t, err)
		msg, err := f.svc.Confirm(ctx, "g1", "u1", f.lastCode(t))
		require.NoError(t, err)
		assert.Contains(t, msg, "Manage Roles")
	})

	t.Run("falla la API", func(t *testing.T) {
		f := newVerifyFixture(t)
		f.dg.roleAddErr = errors.New("403")
		_, err := f.svc.Start(ctx, "g1", "u1", "a@b.co")
		require.NoError(t, err)
		msg, err := f.svc.Confirm(ctx, "g1", "u1", f.lastCode(t))
		require.NoError(t, err)
		assert.Contains(t, msg, "No pude asignar")
	})
}
