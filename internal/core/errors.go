package core

import "errors"

var (
	// ErrInvalidInput marks requests rejected before any work is done.
	ErrInvalidInput = errors.New("invalid input")
	// ErrClassification marks failures to obtain a usable model answer.
	ErrClassification = errors.New("classification failed")
	// ErrPersistence marks store failures.
	ErrPersistence = errors.New("persistence failed")
	ErrNotFound    = errors.New("not found")
	ErrUnexpected  = errors.New("unexpected error")
)

// ClassificationError carries the user-facing message of a failed
// classification. Message is what ends up in the error response.
type ClassificationError struct {
	Message string
	Err     error
}

func NewClassificationError(message string, err error) *ClassificationError {
	return &ClassificationError{Message: message, Err: err}
}

func (e *ClassificationError) Error() string {
	return e.Message
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

func (e *ClassificationError) Is(target error) bool {
	return target == ErrClassification
}
