package backend

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrUnknownKind is returned when a backend name does not match any variant.
	ErrUnknownKind = errors.New("backend: unknown backend kind")

	// ErrNotRegistered is returned when activating a variant that was never registered.
	ErrNotRegistered = errors.New("backend: not registered")

	// ErrUnavailable is returned when a registered backend fails its availability probe.
	ErrUnavailable = errors.New("backend: not available on this system")

	// ErrInitFailed is returned when a backend fails to initialize and the
	// registry fell back to the Null backend.
	ErrInitFailed = errors.New("backend: initialization failed, fell back to null backend")

	// ErrNoDevice is returned when no playback device can be opened.
	ErrNoDevice = errors.New("backend: no playback device")

	// ErrNilBackend is returned when registering a nil backend.
	ErrNilBackend = errors.New("backend: nil backend")
)

// BackendError wraps an error with the variant that produced it.
type BackendError struct {
	Kind Kind
	Err  error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	return fmt.Sprintf("backend [%s]: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *BackendError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with backend context.
func WrapError(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &BackendError{Kind: kind, Err: err}
}
