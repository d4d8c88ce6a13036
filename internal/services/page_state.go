package services

import (
	"errors"
	"strings"

	"storefront/internal/backend"
)

type Status int

const (
	Idle Status = iota
	Loading
	Ready
	Mutating
	Failed
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Mutating:
		return "mutating"
	case Failed:
		return "error"
	}
	return "idle"
}

// PageState tracks one page's request cycle. A failure keeps whatever the
// page last showed and adds an alert.
type PageState struct {
	Status Status
	Err    error
}

func (p PageState) Load() PageState   { return PageState{Status: Loading} }
func (p PageState) Mutate() PageState { return PageState{Status: Mutating} }

// Done settles the state with the outcome of the pending call.
func (p PageState) Done(err error) PageState {
	if err != nil {
		return PageState{Status: Failed, Err: err}
	}
	return PageState{Status: Ready}
}

func (p PageState) Alert() string {
	if p.Status != Failed || p.Err == nil {
		return ""
	}
	return Alert(p.Err)
}

// Alert turns an error into the message shown to the shopper.
func Alert(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		msg := strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")
		return strings.ToUpper(msg[:1]) + msg[1:] + "."
	case errors.Is(err, backend.ErrNotFound):
		return "That product is no longer available."
	case backend.IsTransport(err):
		return "The shop could not be reached. Please try again."
	}
	return "Something went wrong. Please try again."
}
