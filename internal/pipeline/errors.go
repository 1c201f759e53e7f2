package pipeline

import "errors"

var (
	// ErrInvalidInput marks request validation failures.
	ErrInvalidInput = errors.New("invalid input")

	// ErrServiceUnavailable marks turns refused because required
	// collaborators are not initialized.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrQueryProcessingFailed marks turns aborted because query
	// understanding produced no usable embedding.
	ErrQueryProcessingFailed = errors.New("query processing failed")

	// ErrRetrievalFailed marks turns aborted by a vector search failure.
	ErrRetrievalFailed = errors.New("retrieval failed")
)
