// Package apperr defines the error taxonomy shared by the sync channel,
// the preview cache, and the generative-fill pipeline.
package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

var (
	// ErrUnauthorized: no or expired session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden: valid session, insufficient permission.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound: board, stroke, or share absent.
	ErrNotFound = errors.New("not found")
	// ErrUpstreamUnavailable: completion model exhausted its retry budget.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrInvalid: malformed selection, empty stroke set, degenerate geometry.
	ErrInvalid = errors.New("invalid")
)

// E wraps a sentinel with context while keeping errors.Is working.
func E(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// Status maps an error to the HTTP status used by the REST handlers.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrInvalid):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, ErrUpstreamUnavailable):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
