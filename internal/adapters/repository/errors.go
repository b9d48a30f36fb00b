package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound       = errors.New("record not found")
	ErrInvalidChannel = errors.New("invalid channel id")
	ErrInvalidVideo   = errors.New("invalid video record name")
)
