package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrGameNotFound   = errors.New("game not found")
	ErrNoteNotFound   = errors.New("note not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalError  = errors.New("internal server error")
	ErrUnavailable    = errors.New("upstream unavailable")
	ErrSnapshotMiss   = errors.New("snapshot not found")
	ErrNotesDisabled  = errors.New("notes store disabled")
)

// ConfigurationError reports a required setting that is absent.
// It is raised before any network call is attempted.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing configuration: %s", e.Setting)
}

// UpstreamError reports a non-success HTTP status from a dependency.
type UpstreamError struct {
	Service    string
	StatusCode int
	Status     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s request failed: %d %s", e.Service, e.StatusCode, e.Status)
}

// NetworkError wraps a transport-level failure talking to a dependency.
type NetworkError struct {
	Service string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsConfigurationError checks if an error is a missing-configuration error
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// IsUpstreamError reports whether err came from a dependency, either as a
// non-success status or a transport failure. Callers treat both the same way.
func IsUpstreamError(err error) bool {
	var upErr *UpstreamError
	var netErr *NetworkError
	return errors.As(err, &upErr) || errors.As(err, &netErr)
}

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrGameNotFound) || errors.Is(err, ErrNoteNotFound)
}
