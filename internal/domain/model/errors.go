package model

import "errors"

// Sentinel kinds for record decoding errors. Both are per-record failures.
var (
	ErrMalformedRecord  = errors.New("malformed record")
	ErrMalformedComment = errors.New("malformed comment")
)
