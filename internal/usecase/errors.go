package usecase

import "errors"

// Sentinel errors. Their text doubles as the category the HTTP layer maps to
// a status code, so wrap them with %w and keep the keyword in the message.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)
