package mjpeg

import "errors"

// ErrNoFrame is returned when a connection ended without a complete frame.
var ErrNoFrame = errors.New("mjpeg: no complete frame")
