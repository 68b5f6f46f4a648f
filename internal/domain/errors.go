package domain

import "errors"

// Services wrap these with context using %w; handlers map them to HTTP statuses with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
)
