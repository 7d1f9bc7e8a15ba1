package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	gomail "github.com/wneessen/go-mail"
)

type SMTPOptions struct {
	Host               string
	Port               int
	Username           string
	Password           string
	From               string
	RequireTLS         bool
	RejectUnauthorized bool
	Timeout            time.Duration
}

type SMTPSender struct {
	opts   SMTPOptions
	client *gomail.Client
	log    *slog.Logger
}

func NewSMTPSender(o SMTPOptions, log *slog.Logger) (*SMTPSender, error) {
	if o.Port == 0 {
		o.Port = 587
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	opts := []gomail.Option{
		gomail.WithPort(o.Port),
		gomail.WithTimeout(o.Timeout),
		gomail.WithTLSConfig(&tls.Config{
			ServerName:         o.Host,
			InsecureSkipVerify: !o.RejectUnauthorized,
			MinVersion:         tls.VersionTLS12,
		}),
	}
	switch {
	case o.Port == 465:
		opts = append(opts, gomail.WithSSL())
	case o.RequireTLS:
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	default:
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}
	if o.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(o.Username),
			gomail.WithPassword(o.Password),
		)
	}
	c, err := gomail.NewClient(o.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPSender{opts: o, client: c, log: log}, nil
}

func (s *SMTPSender) SendOTP(ctx context.Context, to, code string) error {
	m := gomail.NewMsg()
	if err := m.From(s.opts.From); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := m.To(to); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	m.Subject(otpSubject)
	m.SetBodyString(gomail.TypeTextPlain, otpText(code))

	start := time.Now()
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		s.log.Error("smtp: envío fallido",
			"to", MaskEmail(to), "host", s.opts.Host, "port", s.opts.Port,
			"took", time.Since(start), "err", err)
		return err
	}
	s.log.Info("smtp: OTP enviado",
		"to", MaskEmail(to), "host", s.opts.Host, "port", s.opts.Port, "took", time.Since(start))
	return nil
}
