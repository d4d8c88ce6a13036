package backend

import (
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

const breakerFailures = 5

func newBreaker[T any](name string) *gobreaker.CircuitBreaker[T] {
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:    name,
		Timeout: 15 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= breakerFailures
		},
		// Client-side outcomes say nothing about backend health.
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, ErrNotFound) {
				return true
			}
			var te *TransportError
			if errors.As(err, &te) && te.Status >= 400 && te.Status < 500 {
				return true
			}
			return false
		},
	})
}

// breakerError maps the breaker's own rejections to TransportError.
func breakerError(op string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &TransportError{Op: op, Err: err}
	}
	return err
}
