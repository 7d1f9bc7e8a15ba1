package domain

import (
	"errors"
	"time"
)

const OTPTTL = 10 * time.Minute

var (
	ErrNoPendingOTP = errors.New("no hay OTP pendiente")
	ErrOTPExpired   = errors.New("OTP expirado")
	ErrOTPMismatch  = errors.New("OTP inválido")
)

// OtpEntry es un código pendiente para (guild, user).
type OtpEntry struct {
	Code      string
	Email     string
	ExpiresAt time.Time
}

func (e OtpEntry) Expired(now time.Time) bool { return now.After(e.ExpiresAt) }
