package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskAttr(t *testing.T) {
	a := MaskAttr(nil, slog.String("discord_token", "abc"))
	assert.Equal(t, "[redacted]", a.Value.String())

	a = MaskAttr(nil, slog.String("email", "juanperez@javeriana.edu.co"))
	assert.Equal(t, "ju***@javeriana.edu.co", a.Value.String())

	a = MaskAttr(nil, slog.Int("api_key_len", 3))
	assert.Equal(t, int64(3), a.Value.Int64())

	a = MaskAttr(nil, slog.String("msg", "sin correo"))
	assert.Equal(t, "sin correo", a.Value.String())
}

func TestMaskEmailsInText(t *testing.T) {
	got := MaskEmails("enviado a ana@x.co y a bo@y.org")
	assert.Equal(t, "enviado a an***@x.co y a bo***@y.org", got)
}

func TestNewWritesMaskedConsole(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := New(Options{Level: "debug", NoColor: true, Console: &buf})
	require.NoError(t, err)
	defer closer.Close()

	log.Debug("otp enviado", "email", "maria@javeriana.edu.co", "smtp_password", "hunter2")
	out := buf.String()
	assert.Contains(t, out, "ma***@javeriana.edu.co")
	assert.NotContains(t, out, "hunter2")
}

func TestFanoutWritesToEveryHandler(t *testing.T) {
	var a, b bytes.Buffer
	h := Fanout(
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	log := slog.New(h).With("k", "v")
	log.Info("hola")
	log.Error("fallo")

	assert.Contains(t, a.String(), "hola")
	assert.Contains(t, a.String(), "fallo")
	assert.NotContains(t, b.String(), "hola")
	assert.Contains(t, b.String(), "k=v")
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)
	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
