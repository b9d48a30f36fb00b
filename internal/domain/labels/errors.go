package labels

import "errors"

// Sentinel kinds for taxonomy errors.
var (
	ErrInvalidTaxonomy = errors.New("invalid label taxonomy")
)
