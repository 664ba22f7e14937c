package domain

import "errors"

// Sentinel errors for the application.
var (
	ErrNotFound     = errors.New("conversation not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrStorage      = errors.New("storage failure")
	ErrProvider     = errors.New("reply provider failure")
)
