package hasnatch

import "errors"

var (
	// ErrResolve is returned when the camera attribute could not be resolved.
	ErrResolve = errors.New("hasnatch: resolving camera attribute failed")

	// ErrAcquire is returned when no frame could be saved.
	ErrAcquire = errors.New("hasnatch: frame acquisition failed")
)
