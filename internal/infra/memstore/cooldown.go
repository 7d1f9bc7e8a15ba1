package memstore

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultSweepInterval = 5 * time.Minute
	DefaultSweepMaxAge   = 2 * time.Minute
)

// CooldownResult es la respuesta de Check.
type CooldownResult struct {
	Allowed   bool
	Remaining time.Duration
}

type CooldownInfo struct {
	LastUsed time.Time
	Active   bool
}

// Cooldowns es un rate limit de ventana fija por clave (ej: "verify:<guild>:<user>").
type Cooldowns struct {
	mu   sync.Mutex
	last map[string]time.Time
	now  func() time.Time
}

func NewCooldowns() *Cooldowns {
	return &Cooldowns{last: map[string]time.Time{}, now: time.Now}
}

// Check permite la primera llamada y las que llegan después de ttl; registra el uso si permite.
func (c *Cooldowns) Check(_ context.Context, key string, ttl time.Duration) (CooldownResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if t, ok := c.last[key]; ok {
		if elapsed := now.Sub(t); elapsed < ttl {
			return CooldownResult{Allowed: false, Remaining: ttl - elapsed}, nil
		}
	}
	c.last[key] = now
	return CooldownResult{Allowed: true}, nil
}

func (c *Cooldowns) Info(key string) CooldownInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.last[key]
	return CooldownInfo{LastUsed: t, Active: ok}
}

func (c *Cooldowns) Clear(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.last, key)
	c.mu.Unlock()
	return nil
}

func (c *Cooldowns) Size(context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.last), nil
}

// Sweep borra entradas más viejas que maxAge y devuelve cuántas quitó.
func (c *Cooldowns) Sweep(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	threshold := c.now().Add(-maxAge)
	n := 0
	for k, t := range c.last {
		if t.Before(threshold) {
			delete(c.last, k)
			n++
		}
	}
	return n
}

// Run barre cada interval hasta que ctx termine.
func (c *Cooldowns) Run(ctx context.Context, interval, maxAge time.Duration, log *slog.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := c.Sweep(maxAge); n > 0 && log != nil {
				log.Debug("cooldowns sweep", "removed", n)
			}
		}
	}
}
