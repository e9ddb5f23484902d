package domain

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrCorpusLoad marks a missing or corrupt corpus input. Fatal at startup.
	ErrCorpusLoad = goerr.New("failed to load corpus")

	// ErrDimensionMismatch is returned when query and corpus vectors differ in length.
	ErrDimensionMismatch = goerr.New("embedding dimension mismatch")

	// ErrEmptyCorpus is returned when ranking is attempted against zero chunks.
	ErrEmptyCorpus = goerr.New("corpus is empty")

	// ErrExternalService marks a failed embedding or generation API call.
	ErrExternalService = goerr.New("external service failed")

	// ErrNoAnswer is returned by session operations that need a previous answer.
	ErrNoAnswer = goerr.New("no answer in session")
)

// ServiceError carries the failure of a named external service.
// It matches both ErrExternalService and the underlying cause under errors.Is.
type ServiceError struct {
	Service string
	Err     error
}

// NewServiceError wraps err as a failure of service.
// Errors that already mark an external service failure are returned unchanged.
func NewServiceError(service string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrExternalService) {
		return err
	}
	return &ServiceError{Service: service, Err: err}
}

func (e *ServiceError) Error() string {
	return e.Service + ": " + e.Err.Error()
}

func (e *ServiceError) Unwrap() []error {
	return []error{ErrExternalService, e.Err}
}
