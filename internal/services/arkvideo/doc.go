// Package arkvideo animates still images through the Ark video
// generation API. Generation is asynchronous; a created task is polled
// until it succeeds and exposes a downloadable video URL.
package arkvideo
