// Package apperr defines the error kinds shared by the domain services and
// maps them onto HTTP responses at the handler edge.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

// Error carries a client-safe message together with its kind.
type Error struct {
	kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is lets errors.Is match an *Error against its kind sentinel.
func (e *Error) Is(target error) bool { return target == e.kind }

// NotFound returns a not-found error for the named resource.
func NotFound(resource string) error {
	return &Error{kind: ErrNotFound, Message: resource + " not found"}
}

// Invalid returns a validation error with a formatted message.
func Invalid(format string, args ...interface{}) error {
	return &Error{kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// HTTP converts err into an echo.HTTPError. Not-found and validation errors
// keep their message; anything else becomes a 500 with the fallback message
// and the original error attached as the internal cause for logging.
func HTTP(err error, fallback string) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	var ae *Error
	switch {
	case errors.As(err, &ae) && ae.kind == ErrNotFound:
		return echo.NewHTTPError(http.StatusNotFound, ae.Message)
	case errors.As(err, &ae) && ae.kind == ErrValidation:
		return echo.NewHTTPError(http.StatusBadRequest, ae.Message)
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, fallback).SetInternal(err)
}
