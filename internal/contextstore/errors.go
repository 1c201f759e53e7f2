package contextstore

import "errors"

var (
	// ErrMissingSessionID is returned when an operation is attempted without a session id.
	ErrMissingSessionID = errors.New("missing session id")

	// ErrUnsupportedAction is returned when Do receives an unrecognized action name.
	ErrUnsupportedAction = errors.New("unsupported action")
)
