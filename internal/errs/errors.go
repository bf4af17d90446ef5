// Package errs defines the error taxonomy shared across the service.
// Callers classify failures with errors.Is / errors.As; the HTTP layer
// maps each class to a status code without leaking internals.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a malformed or semantically invalid request.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a missing or inaccessible resource.
	ErrNotFound = errors.New("not found")

	// ErrInvalidMessageIndex marks a feedback index outside the session.
	ErrInvalidMessageIndex = errors.New("invalid message index")

	// ErrExtraction marks a text extraction failure (parse, OCR).
	ErrExtraction = errors.New("text extraction failed")

	// ErrEmbedding marks an embedding model failure.
	ErrEmbedding = errors.New("embedding failed")

	// ErrGeneration marks a generation model failure.
	ErrGeneration = errors.New("generation failed")

	// ErrUpstreamStore marks a vector index or persistence failure.
	ErrUpstreamStore = errors.New("upstream store failed")
)

// UnsupportedTypeError reports an upload whose extension is outside the
// allowed list.
type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.Type)
}

// Wrap attaches a sentinel class to err, keeping the cause visible in
// the message while errors.Is still matches the sentinel.
func Wrap(sentinel error, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}
