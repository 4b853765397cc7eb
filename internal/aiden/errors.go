package aiden

import (
	"errors"
	"fmt"
)

// Fatal auth failures. Both force re-authentication upstream: the session
// cannot be recovered by retrying.
var (
	ErrBadCredentials = errors.New("aiden: email or password incorrect")
	ErrAuthExpired    = errors.New("aiden: unauthorized after re-authentication")
)

// APIError is a non-retryable rejection from the cloud API (4xx other than 401).
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("aiden: api error (status %d)", e.Status)
	}
	return fmt.Sprintf("aiden: api error (status %d): %s", e.Status, e.Message)
}

// TransientError wraps the last failure after the retry budget is exhausted
// (5xx responses or network-level errors).
type TransientError struct {
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("aiden: transient failure after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsAuthError reports whether err means the session is unusable and the
// caller must re-authenticate with fresh credentials.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrBadCredentials) || errors.Is(err, ErrAuthExpired)
}
