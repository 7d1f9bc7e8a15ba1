package mailapi

import "fmt"

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mail api status %d: %s", e.Status, e.Body)
}

// StatusCode permite clasificar sin importar este paquete.
func (e *APIError) StatusCode() int { return e.Status }
