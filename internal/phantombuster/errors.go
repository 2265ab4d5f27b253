// ABOUTME: Error types for the PhantomBuster client
// ABOUTME: Normalizes transport and upstream failures into one error shape

package phantombuster

import (
	"errors"
)

// ErrNoCredential is returned when a call is attempted without an API key
// bound to the request context. The call is never issued in that case.
var ErrNoCredential = errors.New("no PhantomBuster API key provided")

// fallbackErrorMessage is used when neither the upstream response nor the
// transport yields a usable message.
const fallbackErrorMessage = "PhantomBuster API request failed"

// APIError reports a failed call to the PhantomBuster API. Message carries
// the best available human-readable description, resolved in order from the
// upstream "error" field, the upstream "message" field, the transport error
// text, and a fixed fallback.
type APIError struct {
	// Status is the upstream HTTP status, or 0 for transport-level failures.
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}
