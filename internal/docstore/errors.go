package docstore

import "errors"

var (
	// ErrNotConnected is returned when the store is used before Connect.
	ErrNotConnected = errors.New("Not connected")

	// ErrUnsupportedAction is returned for unrecognized action names.
	ErrUnsupportedAction = errors.New("unsupported action")

	// ErrNotFound is returned when a document id has no record.
	ErrNotFound = errors.New("document not found")
)
