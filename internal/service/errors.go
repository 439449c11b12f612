package service

import "errors"

var (
	// ErrInvalidFields is returned when a partial update cannot be applied to
	// the cached record, for example a string written into a numeric field.
	ErrInvalidFields = errors.New("invalid update fields")

	// ErrInvalidItems is returned when the items of a set update cannot be
	// decoded.
	ErrInvalidItems = errors.New("invalid set items")
)
