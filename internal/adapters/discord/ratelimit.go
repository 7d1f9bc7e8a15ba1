package discord

import (
	"context"
	"time"

	"github.com/jose-valero/acm-community-bot/internal/app/service"
	"github.com/jose-valero/acm-community-bot/internal/infra/memstore"
)

// Limiter lo cumplen memstore.Cooldowns y redisstore.Cooldowns.
type Limiter interface {
	service.Cooldowns
	Size(ctx context.Context) (int, error)
}

var _ Limiter = (*memstore.Cooldowns)(nil)

type userLimiter struct {
	cds Limiter
	win time.Duration
}

func newUserLimiter(cds Limiter, window time.Duration) *userLimiter {
	return &userLimiter{cds: cds, win: window}
}

// Allow deja pasar si falla el backend de cooldowns.
func (l *userLimiter) Allow(ctx context.Context, userID string) bool {
	res, err := l.cds.Check(ctx, "click:"+userID, l.win)
	if err != nil {
		return true
	}
	return res.Allowed
}
