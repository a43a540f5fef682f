// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The render stages use it to read clip durations before audio muxing
// and to confirm produced files carry the expected streams.
package ffprobe
