// Package speech synthesizes narration audio for storyboard frames.
// Two backends are provided: the edge-tts command line tool and the
// Baidu speech HTTP API.
package speech
