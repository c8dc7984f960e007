package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidXPAmount  = errors.New("invalid xp amount")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrInvalidInput     = errors.New("invalid input")
)
