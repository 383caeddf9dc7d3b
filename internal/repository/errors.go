package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when a unique constraint is violated.
	ErrConflict = errors.New("entity already exists")

	// ErrStaleState is returned when a compare-and-set update finds the row
	// in a different state than expected.
	ErrStaleState = errors.New("entity state changed concurrently")

	// ErrSoldOut is returned when a capacity-guarded update would oversell.
	ErrSoldOut = errors.New("insufficient capacity")
)
