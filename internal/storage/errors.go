package storage

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when inserting a record whose key is
	// already present. Stores are append-only; records are never updated
	// in place.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned when a record fails basic validation
	// before it reaches the backing store.
	ErrInvalidInput = errors.New("invalid input")
)
