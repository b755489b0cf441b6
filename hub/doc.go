// Package hub talks to the Home Assistant REST API.
//
// It reads entity states to resolve camera attributes (a direct stream source
// or an ephemeral access token) and opens the camera proxy MJPEG stream the
// same way the Home Assistant frontend does.
package hub
