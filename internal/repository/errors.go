package repository

import "errors"

// Failure taxonomy shared by every store implementation. Services and
// handlers match on these with errors.Is.
var (
	ErrNotFound            = errors.New("record not found")
	ErrValidation          = errors.New("validation failed")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInsufficientBalance = errors.New("insufficient register balance")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrDuplicateRecord     = errors.New("duplicate record")
	ErrForbidden           = errors.New("forbidden")
	ErrUnauthorized        = errors.New("unauthorized")
)
