package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig   = fmt.Errorf("configuration not found")
	ErrInvalidConfig   = fmt.Errorf("invalid configuration")
	ErrInvalidDuration = fmt.Errorf("invalid duration")

	// Fetch errors
	ErrTransientFetch = fmt.Errorf("transient fetch failure")
	ErrFetchExhausted = fmt.Errorf("fetch retries exhausted")
	ErrCacheRead      = fmt.Errorf("cache read failed")

	// Pipeline errors
	ErrResolution      = fmt.Errorf("favorites source unreachable")
	ErrImageProcessing = fmt.Errorf("image processing failed")
	ErrMetadataParse   = fmt.Errorf("corrupt metadata")
	ErrLocked          = fmt.Errorf("another run holds the lock")
	ErrPartialRun      = fmt.Errorf("run completed with failures")

	// Service errors
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
