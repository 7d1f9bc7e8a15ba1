package redisstore

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jose-valero/acm-community-bot/internal/domain"
	"github.com/jose-valero/acm-community-bot/internal/infra/memstore"
)

// La clave vive un poco más que el código para poder responder "expirado".
const otpGrace = time.Minute

type OTPStore struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

func NewOTPStore(rdb *redis.Client, ttl time.Duration) *OTPStore {
	if ttl <= 0 {
		ttl = domain.OTPTTL
	}
	return &OTPStore{rdb: rdb, ttl: ttl, now: time.Now}
}

func otpKey(guildID, userID string) string { return keyPrefix + "otp:" + guildID + ":" + userID }

func (s *OTPStore) Issue(ctx context.Context, guildID, userID, email string) (string, error) {
	code, err := memstore.GenerateCode()
	if err != nil {
		return "", err
	}
	key := otpKey(guildID, userID)
	exp := s.now().Add(s.ttl)
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key, map[string]any{
			"code":      code,
			"email":     email,
			"expiresAt": strconv.FormatInt(exp.UnixMilli(), 10),
		})
		p.PExpire(ctx, key, s.ttl+otpGrace)
		return nil
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

func (s *OTPStore) load(ctx context.Context, guildID, userID string) (domain.OtpEntry, bool, error) {
	m, err := s.rdb.HGetAll(ctx, otpKey(guildID, userID)).Result()
	if errors.Is(err, redis.Nil) || (err == nil && len(m) == 0) {
		return domain.OtpEntry{}, false, nil
	}
	if err != nil {
		return domain.OtpEntry{}, false, err
	}
	ms, _ := strconv.ParseInt(m["expiresAt"], 10, 64)
	return domain.OtpEntry{Code: m["code"], Email: m["email"], ExpiresAt: time.UnixMilli(ms)}, true, nil
}

func (s *OTPStore) Pending(ctx context.Context, guildID, userID string) (domain.OtpEntry, bool, error) {
	e, ok, err := s.load(ctx, guildID, userID)
	if err != nil || !ok || e.Expired(s.now()) {
		return domain.OtpEntry{}, false, err
	}
	return e, true, nil
}

func (s *OTPStore) Verify(ctx context.Context, guildID, userID, code string) (string, error) {
	e, ok, err := s.load(ctx, guildID, userID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrNoPendingOTP
	}
	if e.Expired(s.now()) {
		_ = s.rdb.Del(ctx, otpKey(guildID, userID)).Err()
		return "", domain.ErrOTPExpired
	}
	if e.Code != code {
		return "", domain.ErrOTPMismatch
	}
	// Del devuelve 0 si otro proceso lo consumió primero
	n, err := s.rdb.Del(ctx, otpKey(guildID, userID)).Result()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", domain.ErrNoPendingOTP
	}
	return e.Email, nil
}
