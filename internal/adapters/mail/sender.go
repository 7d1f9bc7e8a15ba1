// Package mail entrega los códigos OTP por SMTP o por una API HTTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jose-valero/acm-community-bot/internal/adapters/mail/mailapi"
	"github.com/jose-valero/acm-community-bot/internal/infra/config"
)

const (
	otpSubject = "Código de verificación"

	BackendSMTP = "smtp"
	BackendAPI  = "api"
	BackendLog  = "log"
)

// ErrInvalidAddress se devuelve cuando el destinatario no es aceptable.
var ErrInvalidAddress = errors.New("dirección de correo inválida")

type Sender interface {
	SendOTP(ctx context.Context, to, code string) error
}

func otpText(code string) string {
	return fmt.Sprintf("Tu código de verificación es: %s\n\nEl código vence en 10 minutos.", code)
}

// MaskEmail deja visibles los dos primeros caracteres del usuario.
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return email
	}
	visible := local
	if r := []rune(local); len(r) > 2 {
		visible = string(r[:2]) + "***"
	}
	return visible + "@" + domain
}

// APISender adapta mailapi.Client a Sender.
type APISender struct {
	client *mailapi.Client
	from   string
	log    *slog.Logger
}

func NewAPISender(c *mailapi.Client, from string, log *slog.Logger) *APISender {
	return &APISender{client: c, from: from, log: log}
}

func (s *APISender) SendOTP(ctx context.Context, to, code string) error {
	start := time.Now()
	id, err := s.client.Send(ctx, mailapi.Email{
		From:    s.from,
		To:      []string{to},
		Subject: otpSubject,
		Text:    otpText(code),
	})
	if err != nil {
		s.log.Error("mail api: envío fallido", "to", MaskEmail(to), "took", time.Since(start), "err", err)
		return err
	}
	s.log.Info("mail api: OTP enviado", "to", MaskEmail(to), "took", time.Since(start), "id", id)
	return nil
}

// LogSender solo escribe el código en el log (desarrollo).
type LogSender struct{ log *slog.Logger }

func NewLogSender(log *slog.Logger) *LogSender { return &LogSender{log: log} }

func (s *LogSender) SendOTP(_ context.Context, to, code string) error {
	s.log.Warn("MAIL_BACKEND=log: OTP no enviado", "to", MaskEmail(to), "code", code)
	return nil
}

// FromConfig arma el Sender configurado, con reintentos para los backends reales.
func FromConfig(c config.MailConfig, log *slog.Logger) (Sender, error) {
	log = log.With("component", "mail", "backend", c.Backend)
	switch c.Backend {
	case BackendLog:
		return NewLogSender(log), nil
	case BackendAPI:
		api := mailapi.New(c.APIKey, mailapi.WithBaseURL(c.APIURL))
		return Retrying(NewAPISender(api, c.From, log), DefaultRetry, log), nil
	case BackendSMTP, "":
		s, err := NewSMTPSender(SMTPOptions{
			Host:               c.SMTPHost,
			Port:               c.SMTPPort,
			Username:           c.SMTPUser,
			Password:           c.SMTPPass,
			From:               c.From,
			RequireTLS:         c.SMTPRequireTLS,
			RejectUnauthorized: c.SMTPTLSRejectUnauthorized,
			Timeout:            c.SMTPConnectionTimeout,
		}, log)
		if err != nil {
			return nil, err
		}
		return Retrying(s, DefaultRetry, log), nil
	default:
		return nil, fmt.Errorf("mail: backend desconocido %q", c.Backend)
	}
}
