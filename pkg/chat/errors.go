package chat

import "errors"

// Error taxonomy surfaced to callers. Handlers map these onto HTTP status
// codes; anything wrapping ErrStore is safe to retry as a whole operation
// because every mutation commits through a single atomic batch.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrStore        = errors.New("store unavailable")
)
