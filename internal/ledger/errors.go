package ledger

import "fmt"

// APIError is a non-2xx response from the ledger service. Message carries the
// service's own error text when the body had one, otherwise it is empty.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("ledger: %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("ledger: unexpected status %d", e.Status)
}
