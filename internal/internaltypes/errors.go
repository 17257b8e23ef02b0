package internaltypes

import "errors"

// Failure taxonomy shared by every operation. Callers branch with
// errors.Is; the presentation layer (CLI or HTTP) owns the wording.
var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not found")
	ErrNoAvailability = errors.New("no availability")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidState   = errors.New("invalid state")
)
