// Package render implements the per-frame pipeline stages: image
// generation, animation, video localization, narration, caption
// burning, voice muxing, and the final frame-ordered merge.
//
// Frames are processed independently; a frame that fails a stage is
// skipped (or, with the abort policy, fails the task) and the final
// merge consumes only frames that completed the whole path. The merge
// orders segments strictly by frame id, regardless of the order in
// which earlier stages finished.
package render
