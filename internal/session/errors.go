// ABOUTME: Error kinds for the session layer
// ABOUTME: Distinguishes local auth failures, server rejections, and API errors

package session

import (
	"errors"
	"fmt"
)

// ErrAuthRequired is returned when no usable token exists locally.
// The request never reaches the network.
var ErrAuthRequired = errors.New("authentication required")

// ErrMalformedToken is returned when a token cannot be decoded.
var ErrMalformedToken = errors.New("malformed token")

// AuthFailedError is returned when the backend confirmed the credential is
// invalid, expired, or forbidden. The session has been torn down by the
// time the caller sees this error.
type AuthFailedError struct {
	Message string
}

func (e *AuthFailedError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// APIError is returned by the JSON helpers for non-auth HTTP failures.
// Business-level interpretation of the body is left to the caller.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Body)
}

// LoginError is returned when a credential login attempt is rejected.
type LoginError struct {
	Message string
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login failed: %s", e.Message)
}
