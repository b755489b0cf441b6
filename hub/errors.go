package hub

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingToken is returned when no bearer credential is configured.
	ErrMissingToken = errors.New("hub: missing access token")

	// ErrMissingBaseURL is returned when the hub address is empty.
	ErrMissingBaseURL = errors.New("hub: missing base url")

	// ErrEmptyEntity is returned for an empty entity id.
	ErrEmptyEntity = errors.New("hub: empty entity id")

	// ErrDecode is returned when a state payload is not valid JSON.
	ErrDecode = errors.New("hub: invalid state payload")

	// ErrMissingAttribute is returned when the entity has no usable value for
	// the requested attribute.
	ErrMissingAttribute = errors.New("hub: missing attribute")

	// ErrResolve wraps a failed access token lookup while opening a stream.
	ErrResolve = errors.New("hub: resolving stream token failed")
)

// StatusError reports a non-2xx answer from the hub.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hub: unexpected status %s", e.Status)
}

// Busy reports whether the hub signalled a temporary overload.
func (e *StatusError) Busy() bool {
	switch e.Code {
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Unauthorized reports whether the credential was refused.
func (e *StatusError) Unauthorized() bool {
	return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
}
