// Package ffmpeg drives the ffmpeg command line for the render stages:
// burning frame captions, muxing narration audio into clips, and
// concatenating finished clips into the final video.
package ffmpeg
