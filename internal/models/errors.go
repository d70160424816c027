package models

import "errors"

var (
	// ErrPermissionDenied marks a storage access the platform refused.
	// For multi-location scans it degrades that location to zero candidates;
	// for single-location operations it propagates as a typed outcome.
	ErrPermissionDenied = errors.New("storage permission denied")

	// ErrDecodeFailed marks text that could not be decoded as a snapshot by
	// any known shape, including fragment recovery.
	ErrDecodeFailed = errors.New("snapshot decode failed")

	// ErrNotFound marks a handle that no longer resolves to stored content.
	ErrNotFound = errors.New("backup entry not found")
)
