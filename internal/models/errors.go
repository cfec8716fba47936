package models

import "errors"

// Sentinel errors for caller misuse. All are local, synchronous, and
// non-retryable; call sites wrap them with fmt.Errorf("...: %w", ...) and
// callers match with errors.Is.
var (
	// ErrEmptyDocument is returned by add/update when the text yields no
	// usable tokens after normalization.
	ErrEmptyDocument = errors.New("document has no usable tokens")

	// ErrEmptyQuery is returned by search when the query yields no usable
	// tokens and no id filter restricts the result set.
	ErrEmptyQuery = errors.New("query has no usable tokens")

	// ErrNotFound is returned by remove/update/rename on an unknown id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned for malformed arguments: topK < 1,
	// negative ids, batch length mismatch, duplicate ids within a batch.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyExists is returned by add when the id is already indexed.
	ErrAlreadyExists = errors.New("already exists")
)
