package mail

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/textproto"
	"regexp"
	"strings"
	"syscall"

	gomail "github.com/wneessen/go-mail"
)

// DeliveryError es un fallo de envío ya clasificado.
type DeliveryError struct {
	Temporary   bool
	UserMessage string
	Err         error
}

func (e *DeliveryError) Error() string { return e.UserMessage + ": " + e.Err.Error() }
func (e *DeliveryError) Unwrap() error { return e.Err }

const (
	msgTimeout     = "No se pudo contactar con el servidor de correo (timeout)."
	msgRefused     = "El servidor de correo rechazó la conexión."
	msgAuth        = "Credenciales del servidor de correo inválidas."
	msgInvalidAddr = "La dirección de correo no es válida."
	msgBusy        = "El servicio de correo está saturado, intenta de nuevo en unos minutos."
	msgRejected    = "El servicio de correo rechazó el envío."
	msgUnknown     = "No se pudo enviar el correo."
)

type statusCoder interface{ StatusCode() int }

// Classify decide si vale la pena reintentar y qué mostrarle al usuario.
func Classify(err error) *DeliveryError {
	if err == nil {
		return nil
	}
	var de *DeliveryError
	if errors.As(err, &de) {
		return de
	}
	d := &DeliveryError{Err: err, UserMessage: msgUnknown}

	var sc statusCoder
	var netErr net.Error
	var dnsErr *net.DNSError
	var sendErr *gomail.SendError
	switch {
	case errors.Is(err, ErrInvalidAddress):
		d.UserMessage = msgInvalidAddr
	case errors.Is(err, context.DeadlineExceeded):
		d.Temporary, d.UserMessage = true, msgTimeout
	case errors.As(err, &sc):
		classifyStatus(d, sc.StatusCode())
	case errors.As(err, &dnsErr):
		d.Temporary, d.UserMessage = true, msgRefused
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		d.Temporary, d.UserMessage = true, msgRefused
	case errors.As(err, &netErr) && netErr.Timeout():
		d.Temporary, d.UserMessage = true, msgTimeout
	case isAuthFailure(err):
		d.UserMessage = msgAuth
	case errors.As(err, &sendErr):
		d.Temporary = sendErr.IsTemp()
		if d.Temporary {
			d.UserMessage = msgBusy
		} else {
			d.UserMessage = msgRejected
		}
	}
	return d
}

func classifyStatus(d *DeliveryError, status int) {
	switch {
	case status == http.StatusRequestTimeout:
		d.Temporary, d.UserMessage = true, msgTimeout
	case status == http.StatusTooManyRequests:
		d.Temporary, d.UserMessage = true, msgBusy
	case status >= 500:
		d.Temporary, d.UserMessage = true, msgBusy
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		d.UserMessage = msgAuth
	case status == http.StatusUnprocessableEntity, status == http.StatusBadRequest:
		d.UserMessage = msgInvalidAddr
	default:
		d.UserMessage = msgRejected
	}
}

// 535 es el código SMTP de autenticación rechazada.
const smtpAuthRejected = 535

// la respuesta SMTP va al inicio o después de "prefijo: "
var reAuthReply = regexp.MustCompile(`(?:^|: )535[ -]`)

func isAuthFailure(err error) bool {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return tpErr.Code == smtpAuthRejected
	}
	s := strings.ToLower(err.Error())
	return reAuthReply.MatchString(s) || strings.Contains(s, "authentication failed") ||
		strings.Contains(s, "smtp auth")
}

// UserFacing es el texto que se le muestra al usuario.
func (e *DeliveryError) UserFacing() string { return e.UserMessage }
