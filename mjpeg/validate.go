package mjpeg

import (
	"bytes"
	"image/jpeg"
)

// IsJPEG reports whether frame starts with a decodable JPEG header.
// It is meant as ScannerOptions.Validate.
func IsJPEG(frame []byte) bool {
	_, err := jpeg.DecodeConfig(bytes.NewReader(frame))
	return err == nil
}
