package types

import "errors"

// Domain error taxonomy. Services return these (possibly wrapped) and the
// HTTP layer maps them to status codes with HTTPStatus.
var (
	ErrNotFound     = errors.New("record not found")
	ErrForbidden    = errors.New("actor is not allowed to perform this action")
	ErrInvalidState = errors.New("record state does not permit this operation")
	ErrConflict     = errors.New("concurrent modification detected")
	ErrValidation   = errors.New("invalid input")
)

// HTTPStatus maps a domain error to an HTTP status code.
// Unknown errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return 400
	case errors.Is(err, ErrForbidden):
		return 403
	case errors.Is(err, ErrNotFound):
		return 404
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrConflict):
		return 409
	default:
		return 500
	}
}
