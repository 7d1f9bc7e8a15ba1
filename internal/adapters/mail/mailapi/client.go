// Package mailapi es un cliente mínimo para APIs HTTP de correo compatibles con Resend.
package mailapi

import (
	"context"
	"fmt"
)

// Send envía el correo y devuelve el id asignado por el proveedor.
func (c *Client) Send(ctx context.Context, e Email) (string, error) {
	if len(e.To) == 0 {
		return "", fmt.Errorf("mail api: sin destinatarios")
	}
	var res sendResponse
	if err := c.doJSON(ctx, "POST", "/emails", e, &res); err != nil {
		return "", err
	}
	return res.ID, nil
}
