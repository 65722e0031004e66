package dao

import "errors"

// Sentinel errors shared by every store; match them with errors.Is.
var (
	// ErrNotFound is returned by Load and Delete for an unknown key.
	ErrNotFound = errors.New("dao: not found")

	// ErrInvalidID is returned for an empty key.
	ErrInvalidID = errors.New("dao: invalid id")

	// ErrNilEntity is returned by Save for a nil pointer.
	ErrNilEntity = errors.New("dao: nil entity")
)
