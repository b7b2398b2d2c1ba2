package cloud

import "errors"

// Domain-specific errors for cloud operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnauthenticated is returned when no token is set, the token has
	// expired, or the cloud rejected it. Callers should re-login.
	ErrUnauthenticated = errors.New("cloud: unauthenticated")

	// ErrRequestFailed is returned for non-200 responses other than 401.
	ErrRequestFailed = errors.New("cloud: request failed")
)
