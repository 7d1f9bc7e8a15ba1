package redisstore

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jose-valero/acm-community-bot/internal/infra/memstore"
)

// Cooldowns usa SET NX PX: la expiración de la clave hace de barrido.
type Cooldowns struct {
	rdb *redis.Client
	now func() time.Time
}

func NewCooldowns(rdb *redis.Client) *Cooldowns { return &Cooldowns{rdb: rdb, now: time.Now} }

func cooldownKey(k string) string { return keyPrefix + "cd:" + k }

func (c *Cooldowns) Check(ctx context.Context, key string, ttl time.Duration) (memstore.CooldownResult, error) {
	k := cooldownKey(key)
	ok, err := c.rdb.SetNX(ctx, k, strconv.FormatInt(c.now().UnixMilli(), 10), ttl).Result()
	if err != nil {
		return memstore.CooldownResult{}, err
	}
	if ok {
		return memstore.CooldownResult{Allowed: true}, nil
	}
	left, err := c.rdb.PTTL(ctx, k).Result()
	if err != nil {
		return memstore.CooldownResult{}, err
	}
	if left <= 0 {
		// expiró entre SETNX y PTTL
		return memstore.CooldownResult{Allowed: true}, c.rdb.Set(ctx, k, c.now().UnixMilli(), ttl).Err()
	}
	return memstore.CooldownResult{Allowed: false, Remaining: left}, nil
}

func (c *Cooldowns) Clear(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, cooldownKey(key)).Err()
}

// Size cuenta las claves activas con SCAN.
func (c *Cooldowns) Size(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, cooldownKey("*"), 200).Result()
		if err != nil {
			return 0, err
		}
		total += len(keys)
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}
