// Package apperr defines sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrDateParse       = errors.New("could not parse date")
	ErrMenuUnavailable = errors.New("menu unavailable")
	ErrExtraction      = errors.New("text extraction failed")
	ErrUnauthorized    = errors.New("unauthorized")
)
