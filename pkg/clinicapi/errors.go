package clinicapi

import (
	"errors"
	"fmt"
	"net/http"
)

// Failure classes. Every error returned by this package wraps exactly one of them.
var (
	ErrNotFound          = errors.New("record not found")
	ErrConflict          = errors.New("conflicting change")
	ErrValidation        = errors.New("record rejected as invalid")
	ErrUnavailable       = errors.New("clinic api unavailable")
	ErrMalformedResponse = errors.New("malformed response")
	ErrRequestFailed     = errors.New("request failed")
)

// Error describes one failed call to the clinic API.
type Error struct {
	Op       string // list, get, create, update, remove
	Resource string
	Key      string
	Status   int    // 0 when no response was received
	Message  string // response body excerpt, if any
	Kind     error
	Cause    error
}

func (e *Error) Error() string {
	target := e.Resource
	if e.Key != "" {
		target += "/" + e.Key
	}
	msg := fmt.Sprintf("clinicapi: %s %s: %v", e.Op, target, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	} else if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// Class returns a short stable name for the failure class of err, "ok" for nil.
func Class(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	default:
		return "failed"
	}
}

func kindForStatus(status int) error {
	switch {
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict || status == http.StatusPreconditionFailed:
		return ErrConflict
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return ErrValidation
	case status >= 500 || status == http.StatusTooManyRequests || status == http.StatusRequestTimeout:
		return ErrUnavailable
	default:
		return ErrRequestFailed
	}
}
