// Package mjpeg grabs a single JPEG frame from a multipart motion-JPEG stream.
//
// Frames are located by their SOI (FF D8) and EOI (FF D9) markers only; the
// multipart boundaries are not parsed. A Scanner keeps the newest complete
// frame of a connection and reports when the connection is old enough for that
// frame to be trusted, as the first frames after a camera wakes up are often
// stale. The Acquirer reconnects with a fixed delay until one frame is saved.
package mjpeg
