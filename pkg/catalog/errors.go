package catalog

import "errors"

var (
	// ErrEmptyCatalog is returned when selection is attempted with no items.
	ErrEmptyCatalog = errors.New("catalog is empty")

	// ErrInvalidItem is returned for items that cannot be played at all.
	ErrInvalidItem = errors.New("invalid catalog item")
)
