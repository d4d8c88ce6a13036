package backend

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that the requested product is absent.
var ErrNotFound = errors.New("not found")

// TransportError covers unreachable backends, non-2xx answers, undecodable bodies and an
// open circuit breaker.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func notFound(op string) error { return fmt.Errorf("%s: %w", op, ErrNotFound) }

func isNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
