package mail

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type RetryConfig struct {
	Attempts int
	Initial  time.Duration
}

// DefaultRetry: 3 intentos, 2s y luego 4s de espera.
var DefaultRetry = RetryConfig{Attempts: 3, Initial: 2 * time.Second}

type retrying struct {
	next Sender
	cfg  RetryConfig
	log  *slog.Logger
}

// Retrying reintenta solo los fallos temporales y devuelve siempre un *DeliveryError.
func Retrying(next Sender, cfg RetryConfig, log *slog.Logger) Sender {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	return &retrying{next: next, cfg: cfg, log: log}
}

func (r *retrying) SendOTP(ctx context.Context, to, code string) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.cfg.Initial
	eb.Multiplier = 2
	eb.RandomizationFactor = 0
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(r.cfg.Attempts-1)), ctx)

	attempt := 0
	op := func() error {
		attempt++
		err := r.next.SendOTP(ctx, to, code)
		if err == nil {
			return nil
		}
		d := Classify(err)
		if !d.Temporary {
			return backoff.Permanent(d)
		}
		return d
	}
	notify := func(err error, wait time.Duration) {
		r.log.Warn("envío de correo falló, reintentando",
			"to", MaskEmail(to), "attempt", attempt, "wait", wait, "err", err)
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return Classify(err)
	}
	return nil
}
