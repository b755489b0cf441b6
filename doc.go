// Package hasnatch saves a still image of a camera exposed by Home Assistant.
//
// Two strategies are available. In ffmpeg mode the direct stream source is read
// from an entity attribute and ffmpeg grabs one frame. In stream mode the
// ephemeral access token of the camera entity is used to open the hub's MJPEG
// proxy stream, and the frame is cut out of the raw bytes.
package hasnatch
