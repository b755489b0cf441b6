// Package ffmpeg grabs a single frame from a camera stream via ffmpeg.
//
// This package requires the `ffmpeg` command line tool to be installed. Install by running
// - `apt install ffmpeg` on Debian based systems or use the Home Assistant add-on base image
// - `sudo port install ffmpeg` on macOS
//
// The stream might take a moment to wake up, so a failed grab is retried a few times.
package ffmpeg
