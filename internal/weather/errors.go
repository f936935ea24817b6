package weather

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound means the provider does not know the requested city.
	ErrNotFound = errors.New("weather: city not found")
	// ErrUnavailable means the provider could not be reached or answered with an error status.
	ErrUnavailable = errors.New("weather: provider unavailable")
	// ErrMalformed means the provider answered 200 with a body that could not be used.
	// It also matches ErrUnavailable.
	ErrMalformed = errors.New("weather: malformed response")
)

// Kind classifies a failed lookup.
type Kind string

const (
	KindNotFound    Kind = "not_found"
	KindUnavailable Kind = "unavailable"
	KindMalformed   Kind = "malformed"
)

// Error describes a failed Fetch.
type Error struct {
	Kind     Kind
	City     string
	HTTPCode int
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("weather %s for %q", e.Kind, e.City)
	if e.HTTPCode != 0 {
		msg += fmt.Sprintf(" (http %d)", e.HTTPCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the package sentinels by kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrUnavailable:
		return e.Kind == KindUnavailable || e.Kind == KindMalformed
	case ErrMalformed:
		return e.Kind == KindMalformed
	}
	return false
}

// Code is used by the handler summary logger as err_code.
func (e *Error) Code() string { return "WEATHER_" + strings.ToUpper(string(e.Kind)) }
