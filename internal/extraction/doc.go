// Package extraction implements the document extraction stage: the
// task's document URL is sent to MinerU and the returned markdown is
// written into the task workspace.
package extraction
