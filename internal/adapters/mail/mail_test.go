package mail

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/textproto"
	"syscall"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/acm-community-bot/internal/adapters/mail/mailapi"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "ab***@x.com", MaskEmail("abcdef@x.com"))
	assert.Equal(t, "ab@x.com", MaskEmail("ab@x.com"))
	assert.Equal(t, "sin-arroba", MaskEmail("sin-arroba"))

	got := MaskEmail("ñandú@x.com")
	assert.Equal(t, "ña***@x.com", got)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "jö@x.com", MaskEmail("jö@x.com"))
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		temp bool
		msg  string
	}{
		{"deadline", context.DeadlineExceeded, true, msgTimeout},
		{"refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, true, msgRefused},
		{"dns", &net.DNSError{Err: "no such host", Name: "smtp.x"}, true, msgRefused},
		{"api 503", &mailapi.APIError{Status: 503}, true, msgBusy},
		{"api 429", &mailapi.APIError{Status: 429}, true, msgBusy},
		{"api 401", &mailapi.APIError{Status: 401}, false, msgAuth},
		{"api 422", &mailapi.APIError{Status: 422}, false, msgInvalidAddr},
		{"smtp auth", errors.New("535 5.7.8 Authentication failed"), false, msgAuth},
		{"smtp auth prefijo", errors.New("smtp: 535 5.7.8 credenciales"), false, msgAuth},
		{"smtp auth textproto", &textproto.Error{Code: 535, Msg: "5.7.8 bad credentials"}, false, msgAuth},
		{"535 en un puerto", errors.New("dial smtp.x:5353: bad greeting"), false, msgUnknown},
		{"535 en un id", errors.New("mensaje 1535 rechazado por política"), false, msgUnknown},
		{"textproto otro código", &textproto.Error{Code: 550, Msg: "mailbox 535 unavailable"}, false, msgUnknown},
		{"bad address", ErrInvalidAddress, false, msgInvalidAddr},
		{"other", errors.New("boom"), false, msgUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Classify(tc.err)
			require.NotNil(t, d)
			assert.Equal(t, tc.temp, d.Temporary)
			assert.Equal(t, tc.msg, d.UserMessage)
			assert.ErrorIs(t, d, tc.err)
		})
	}
	assert.Nil(t, Classify(nil))
}

type flakySender struct {
	errs  []error
	calls int
}

func (f *flakySender) SendOTP(context.Context, string, string) error {
	f.calls++
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func TestRetryingRecoversFromTemporary(t *testing.T) {
	f := &flakySender{errs: []error{context.DeadlineExceeded, &mailapi.APIError{Status: 502}}}
	s := Retrying(f, RetryConfig{Attempts: 3, Initial: time.Millisecond}, discard)

	require.NoError(t, s.SendOTP(context.Background(), "a@b.co", "123456"))
	assert.Equal(t, 3, f.calls)
}

func TestRetryingStopsOnPermanent(t *testing.T) {
	f := &flakySender{errs: []error{&mailapi.APIError{Status: 401}, nil}}
	s := Retrying(f, RetryConfig{Attempts: 3, Initial: time.Millisecond}, discard)

	err := s.SendOTP(context.Background(), "a@b.co", "123456")
	var d *DeliveryError
	require.True(t, errors.As(err, &d))
	assert.False(t, d.Temporary)
	assert.Equal(t, msgAuth, d.UserMessage)
	assert.Equal(t, 1, f.calls)
}

func TestRetryingGivesUpAfterAttempts(t *testing.T) {
	temp := &mailapi.APIError{Status: 500}
	f := &flakySender{errs: []error{temp, temp, temp, temp}}
	s := Retrying(f, RetryConfig{Attempts: 3, Initial: time.Millisecond}, discard)

	err := s.SendOTP(context.Background(), "a@b.co", "123456")
	var d *DeliveryError
	require.True(t, errors.As(err, &d))
	assert.True(t, d.Temporary)
	assert.Equal(t, 3, f.calls)
}
