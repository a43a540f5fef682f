// Package storyboard implements the storyboard generation stage: the
// extracted document is turned into a fixed-field frame list by the
// language model, validated, and persisted on the queue item.
package storyboard
