package model

import "github.com/pkg/errors"

// ErrorKind is the error taxonomy from which the dispatcher decides whether
// to retry, surface a neutral verdict, or treat a message as already handled.
type ErrorKind string

const (
	// ErrConfig is a missing/malformed env or secret. Fatal.
	ErrConfig ErrorKind = "config_error"
	// ErrAuth is a bad signature or unauthorized forge call.
	ErrAuth ErrorKind = "auth_error"
	// ErrValidation is malformed JSON or a schema violation. Never retried.
	ErrValidation ErrorKind = "validation_error"
	// ErrTransient is a retryable upstream condition.
	ErrTransient ErrorKind = "transient_error"
	// ErrBusinessSkip is a deliberate no-op: idempotency conflict, draft PR,
	// ignored branch, unauthorized repo. Logged and returned as success.
	ErrBusinessSkip ErrorKind = "business_skip"
)

// KindedError wraps an error with a taxonomy classification so the
// dispatcher's outer boundary can decide how to propagate it without
// re-inspecting concrete error types.
type KindedError struct {
	Kind ErrorKind
	Err  error
}

func (e *KindedError) Error() string {
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *KindedError) Unwrap() error {
	return e.Err
}

// Wrap classifies err under kind, adding msg as context via pkg/errors.
func Wrap(kind ErrorKind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &KindedError{Kind: kind, Err: errors.Wrap(err, msg)}
}

// KindOf extracts the ErrorKind from err, defaulting to ErrTransient for
// errors that were never classified (the safest default: retry rather than
// silently swallow or falsely claim success).
func KindOf(err error) ErrorKind {
	var ke *KindedError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return ErrTransient
}
