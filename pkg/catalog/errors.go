package catalog

import "errors"

var (
	// ErrNotFound is returned when an operator or map is not in the catalog.
	ErrNotFound = errors.New("catalog: not found")

	// ErrInvalidData is returned when catalog data fails to parse or validate.
	ErrInvalidData = errors.New("catalog: invalid data")
)
