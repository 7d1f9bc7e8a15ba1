package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

var (
	emailRe       = regexp.MustCompile(`([A-Za-z0-9._%+\-]{1,2})[A-Za-z0-9._%+\-]*@([A-Za-z0-9.\-]+\.[A-Za-z]{2,})`)
	sensitiveKeys = []string{"token", "key", "secret", "password", "pass"}
)

// MaskAttr oculta secretos por nombre de clave y enmascara emails en strings.
func MaskAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindString {
		return a
	}
	k := strings.ToLower(a.Key)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return slog.String(a.Key, "[redacted]")
		}
	}
	v := a.Value.String()
	if strings.Contains(v, "@") {
		return slog.String(a.Key, MaskEmails(v))
	}
	return a
}

// MaskEmails deja los 2 primeros caracteres del usuario de cada email.
func MaskEmails(s string) string {
	return emailRe.ReplaceAllString(s, "${1}***@${2}")
}
