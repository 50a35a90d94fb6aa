package fetch

import (
	"fmt"

	"github.com/egecelikci/favorites/internal/shared"
)

// StatusError is a non-2xx response. It is a transient fetch error.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: HTTP %d", shared.ErrTransientFetch, e.Code)
}

func (e *StatusError) Unwrap() error {
	return shared.ErrTransientFetch
}

// FetchExhaustedError is returned when every attempt failed and no stale entry could be served.
//
// It matches [shared.ErrFetchExhausted] and the last underlying error with [errors.Is].
type FetchExhaustedError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchExhaustedError) Error() string {
	return fmt.Sprintf("%v after %d attempts: %s: %v", shared.ErrFetchExhausted, e.Attempts, e.URL, e.Err)
}

func (e *FetchExhaustedError) Unwrap() []error {
	return []error{shared.ErrFetchExhausted, e.Err}
}
