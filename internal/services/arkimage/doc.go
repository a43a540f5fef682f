// Package arkimage generates images from text prompts through the
// Ark image generation API.
package arkimage
