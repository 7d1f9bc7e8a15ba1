package memstore

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/jose-valero/acm-community-bot/internal/domain"
)

// OTPStore guarda un código por (guild, user). La expiración se evalúa al verificar.
type OTPStore struct {
	mu      sync.Mutex
	entries map[string]map[string]domain.OtpEntry // guild -> user -> entry
	ttl     time.Duration
	now     func() time.Time
}

func NewOTPStore(ttl time.Duration) *OTPStore {
	if ttl <= 0 {
		ttl = domain.OTPTTL
	}
	return &OTPStore{
		entries: map[string]map[string]domain.OtpEntry{},
		ttl:     ttl,
		now:     time.Now,
	}
}

// GenerateCode devuelve un código numérico de 6 dígitos.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("otp rand: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Issue genera un código nuevo y pisa cualquier código anterior del usuario.
func (s *OTPStore) Issue(_ context.Context, guildID, userID, email string) (string, error) {
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.entries[guildID]
	if !ok {
		g = map[string]domain.OtpEntry{}
		s.entries[guildID] = g
	}
	g[userID] = domain.OtpEntry{Code: code, Email: email, ExpiresAt: s.now().Add(s.ttl)}
	return code, nil
}

// Pending devuelve el código vivo del usuario, si existe.
func (s *OTPStore) Pending(_ context.Context, guildID, userID string) (domain.OtpEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[guildID][userID]
	if !ok || e.Expired(s.now()) {
		return domain.OtpEntry{}, false, nil
	}
	return e, true, nil
}

// Verify consume el código si coincide. Un mismatch no borra la entrada.
func (s *OTPStore) Verify(_ context.Context, guildID, userID, code string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.entries[guildID]
	e, ok := g[userID]
	if !ok {
		return "", domain.ErrNoPendingOTP
	}
	if e.Expired(s.now()) {
		s.drop(guildID, userID)
		return "", domain.ErrOTPExpired
	}
	if e.Code != code {
		return "", domain.ErrOTPMismatch
	}
	s.drop(guildID, userID)
	return e.Email, nil
}

func (s *OTPStore) drop(guildID, userID string) {
	g := s.entries[guildID]
	delete(g, userID)
	if len(g) == 0 {
		delete(s.entries, guildID)
	}
}
